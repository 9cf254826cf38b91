package importer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/appengine-ltd/dailysim/internal/content"
	"github.com/appengine-ltd/dailysim/internal/schema"
	"github.com/appengine-ltd/dailysim/internal/workbook"
)

// placementSlot is one NPC column: the header names the NPC, the row cell
// names the anchor, and an optional neighbour carries the event id.
type placementSlot struct {
	npcID     string
	anchorCol int
	eventCol  int
}

// ParseLocations builds a PlacementSet per row. The paired layout reads
// columns two at a time (NPC, event id, NPC, event id, ...); the inferred
// layout only accepts NPC columns whose right neighbour is an event-id
// column. LocationAuto uses whichever finds a placement, inferred first.
func ParseLocations(sheet *workbook.Sheet, strategy LocationStrategy, log *slog.Logger) ([]content.PlacementSet, SheetReport) {
	rep := SheetReport{HeaderRow: -1}
	profile, headerRow, err := detectProfile(sheet, locationProfiles)
	if err != nil {
		log.Error("npc location: cannot detect header row", "err", err)
		rep.Err = err
		return nil, rep
	}
	rep.HeaderRow = headerRow

	headers := schema.BuildHeaderMap(sheet, headerRow)
	colID, ok := headers.Find(profile.id)
	if !ok {
		rep.Err = fmt.Errorf("%w: %s", schema.ErrColumnNotFound, profile.id)
		log.Error("npc location: missing id column", "err", rep.Err)
		return nil, rep
	}
	colNote := lookupAny(headers, profile.note)

	width := sheet.Width()
	isEvent := func(c int) bool {
		h := schema.NormalizeHeader(sheet.Cell(headerRow, c).String())
		for _, marker := range profile.event {
			if h != "" && strings.Contains(h, schema.NormalizeHeader(marker)) {
				return true
			}
		}
		return false
	}
	npcAt := func(c int) string {
		return sheet.Cell(headerRow, c).String()
	}
	inferFrom := func(first int) []placementSlot {
		var slots []placementSlot
		for c := first; c+1 < width; c++ {
			if npcAt(c) == "" || isEvent(c) || !isEvent(c+1) {
				continue
			}
			slots = append(slots, placementSlot{npcID: npcAt(c), anchorCol: c, eventCol: c + 1})
		}
		return slots
	}

	// An unrecognised note header still occupies the column after the id,
	// unless that column is already an NPC followed by its event id.
	first := colID + 1
	noteGuessed := false
	switch {
	case colNote >= first:
		first = colNote + 1
	case colNote < 0:
		if slots := inferFrom(first); len(slots) == 0 || slots[0].anchorCol != first {
			colNote = first
			first++
			noteGuessed = true
		}
	}

	inferred := inferFrom(first)
	var paired []placementSlot
	for c := first; c < width; c += 2 {
		if npcAt(c) == "" || isEvent(c) {
			continue
		}
		if noteGuessed && len(inferred) > 0 && c < inferred[0].anchorCol {
			continue
		}
		slot := placementSlot{npcID: npcAt(c), anchorCol: c, eventCol: -1}
		if c+1 < width {
			slot.eventCol = c + 1
		}
		paired = append(paired, slot)
	}
	log.Debug("npc location: slots", "strategy", strategy, "paired", len(paired), "inferred", len(inferred))

	var sets []content.PlacementSet
	for r := headerRow + 1; r < len(sheet.Rows); r++ {
		if sheet.RowEmpty(r) {
			continue
		}
		rep.Rows++

		id := schema.CellInt(sheet.Cell(r, colID))
		if id == 0 {
			rep.Skipped++
			log.Warn("npc location: row without id", "sheet", sheet.Name, "row", r+1)
			continue
		}

		var placements []content.Placement
		switch strategy {
		case LocationPaired:
			placements = collectPlacements(sheet, r, paired)
		case LocationInferred:
			placements = collectPlacements(sheet, r, inferred)
		default:
			placements = collectPlacements(sheet, r, inferred)
			if len(placements) == 0 {
				placements = collectPlacements(sheet, r, paired)
			}
		}
		if placements == nil {
			placements = []content.Placement{}
		}
		sets = append(sets, content.PlacementSet{
			ID:         id,
			Note:       optionalString(sheet, r, colNote),
			Placements: placements,
		})
	}
	return sets, rep
}

// collectPlacements drops slots with an empty anchor: that NPC is absent
// from this set.
func collectPlacements(sheet *workbook.Sheet, row int, slots []placementSlot) []content.Placement {
	var out []content.Placement
	for _, s := range slots {
		npc := strings.TrimSpace(s.npcID)
		anchor := strings.TrimSpace(schema.CellString(sheet.Cell(row, s.anchorCol)))
		if npc == "" || anchor == "" {
			continue
		}
		out = append(out, content.Placement{
			NPCID:    npc,
			AnchorID: anchor,
			EventID:  optionalInt(sheet, row, s.eventCol),
		})
	}
	return out
}

func lookupAny(headers *schema.HeaderMap, names []string) int {
	chain := make([]schema.Candidate, 0, len(names)*2)
	for _, n := range names {
		chain = append(chain, schema.Exact(n))
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
