package importer

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/appengine-ltd/dailysim/internal/content"
	"github.com/appengine-ltd/dailysim/internal/schema"
	"github.com/appengine-ltd/dailysim/internal/workbook"
)

// ParseSchedule builds one Day per data row. Without a header row or
// without the id and day-number columns it returns nothing at all.
func ParseSchedule(sheet *workbook.Sheet, fallbackKeys []string, log *slog.Logger) ([]content.Day, SheetReport) {
	rep := SheetReport{HeaderRow: -1}
	profile, headerRow, err := detectProfile(sheet, scheduleProfiles)
	if err != nil {
		log.Error("schedule: cannot detect header row", "err", err)
		rep.Err = err
		return nil, rep
	}
	rep.HeaderRow = headerRow

	headers := schema.BuildHeaderMap(sheet, headerRow)
	colID, okID := headers.Find(profile.id)
	colDay, okDay := headers.Find(profile.day)
	if !okID || !okDay {
		rep.Err = fmt.Errorf("%w: %s=%d %s=%d", schema.ErrColumnNotFound, profile.id, colID, profile.day, colDay)
		log.Error("schedule: missing columns", "err", rep.Err)
		return nil, rep
	}

	keys := TimeBlockKeys(headers.Keys(), profile.blockPrefix, fallbackKeys)
	slots := make([]blockColumns, 0, len(keys))
	for _, key := range keys {
		if cols, ok := resolveBlockColumns(headers, profile, key); ok {
			slots = append(slots, cols)
		}
	}

	var days []content.Day
	for r := headerRow + 1; r < len(sheet.Rows); r++ {
		if sheet.RowEmpty(r) {
			continue
		}
		rep.Rows++

		id := schema.CellInt(sheet.Cell(r, colID))
		dayNumber := schema.CellInt(sheet.Cell(r, colDay))
		if id == 0 && dayNumber == 0 {
			rep.Skipped++
			log.Warn("schedule: row without id and day number", "sheet", sheet.Name, "row", r+1)
			continue
		}

		day := content.Day{ID: id, DayNumber: dayNumber, Blocks: []content.Block{}}
		for _, slot := range slots {
			at := schema.CellTime(sheet.Cell(r, slot.time))
			if at == "" {
				continue
			}
			day.Blocks = append(day.Blocks, content.Block{
				Time:            at,
				Name:            optionalString(sheet, r, slot.name),
				LocationID:      optionalInt(sheet, r, slot.location),
				StartDialogueID: optionalInt(sheet, r, slot.start),
				EndDialogueID:   optionalInt(sheet, r, slot.end),
			})
		}
		SortBlocks(day.Blocks)
		days = append(days, day)
	}
	return days, rep
}

// TimeBlockKeys collects the suffixes of headers that start with prefix,
// e.g. "时间段a" -> "a", in ordinal order. fallback is used when none exist.
func TimeBlockKeys(headers []string, prefix string, fallback []string) []string {
	p := schema.NormalizeHeader(prefix)
	seen := map[string]bool{}
	var keys []string
	for _, h := range headers {
		s := schema.NormalizeHeader(h)
		if !strings.HasPrefix(s, p) {
			continue
		}
		key := strings.TrimSpace(strings.TrimPrefix(s, p))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return append([]string(nil), fallback...)
	}
	sort.Strings(keys)
	return keys
}

type blockColumns struct {
	time     int
	name     int
	location int
	start    int
	end      int
}

func resolveBlockColumns(headers *schema.HeaderMap, p scheduleProfile, key string) (blockColumns, bool) {
	colTime, ok := headers.Find(p.blockPrefix + key)
	if !ok {
		return blockColumns{}, false
	}
	colName, _ := headers.Lookup(schema.Exact(p.name+key), schema.Exact(p.name))
	return blockColumns{
		time:     colTime,
		name:     colName,
		location: suffixedChain(headers, p.location, key),
		start:    suffixedChain(headers, p.start, key),
		end:      suffixedChain(headers, p.end, key),
	}, true
}

// suffixedChain looks for "<name><key>" exactly, then as a substring, then
// falls back to the unsuffixed spellings in order.
func suffixedChain(headers *schema.HeaderMap, names []string, key string) int {
	if len(names) == 0 {
		return -1
	}
	chain := []schema.Candidate{
		schema.Exact(names[0] + key),
		schema.Contains(names[0] + key),
	}
	for _, n := range names {
		chain = append(chain, schema.Contains(n))
	}
	col, ok := headers.Lookup(chain...)
	if !ok {
		return -1
	}
	return col
}

// SortBlocks orders blocks by minute of day, keeping ties in source order.
// Blocks with an unparsable time go last.
func SortBlocks(blocks []content.Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return schema.SortMinutes(blocks[i].Time) < schema.SortMinutes(blocks[j].Time)
	})
}

func optionalString(sheet *workbook.Sheet, row, col int) string {
	if col < 0 {
		return ""
	}
	return schema.CellString(sheet.Cell(row, col))
}

func optionalInt(sheet *workbook.Sheet, row, col int) int {
	if col < 0 {
		return 0
	}
	return schema.CellInt(sheet.Cell(row, col))
}
