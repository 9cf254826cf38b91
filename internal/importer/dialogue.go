package importer

import (
	"fmt"
	"log/slog"

	"github.com/appengine-ltd/dailysim/internal/content"
	"github.com/appengine-ltd/dailysim/internal/schema"
	"github.com/appengine-ltd/dailysim/internal/workbook"
)

// ParseDialogue reads lines in row order. Several rows may share an id to
// form one conversation.
func ParseDialogue(sheet *workbook.Sheet, log *slog.Logger) ([]content.DialogueLine, SheetReport) {
	rep := SheetReport{HeaderRow: -1}
	profile, headerRow, err := detectProfile(sheet, dialogueProfiles)
	if err != nil {
		log.Error("dialogue: cannot detect header row", "err", err)
		rep.Err = err
		return nil, rep
	}
	rep.HeaderRow = headerRow

	headers := schema.BuildHeaderMap(sheet, headerRow)
	colID, okID := headers.Find(profile.id)
	colText := exactAny(headers, profile.text)
	if !okID || colText < 0 {
		rep.Err = fmt.Errorf("%w: %s=%d text=%d", schema.ErrColumnNotFound, profile.id, colID, colText)
		log.Error("dialogue: missing columns", "err", rep.Err)
		return nil, rep
	}
	colSpeaker := exactAny(headers, profile.speaker)
	if colSpeaker < 0 && len(profile.speaker) > 0 {
		colSpeaker, _ = headers.Lookup(schema.Fuzzy(profile.speaker[0]))
	}
	colTime := exactAny(headers, profile.time)

	var lines []content.DialogueLine
	for r := headerRow + 1; r < len(sheet.Rows); r++ {
		if sheet.RowEmpty(r) {
			continue
		}
		rep.Rows++

		id := schema.CellInt(sheet.Cell(r, colID))
		text := schema.CellString(sheet.Cell(r, colText))
		if id == 0 || text == "" {
			rep.Skipped++
			log.Warn("dialogue: row skipped", "sheet", sheet.Name, "row", r+1, "id", id, "has_text", text != "")
			continue
		}

		line := content.DialogueLine{
			DialogueID: id,
			Speaker:    optionalString(sheet, r, colSpeaker),
			Text:       text,
		}
		if colTime >= 0 {
			line.Time = schema.CellTime(sheet.Cell(r, colTime))
		}
		lines = append(lines, line)
	}
	return lines, rep
}

func exactAny(headers *schema.HeaderMap, names []string) int {
	chain := make([]schema.Candidate, 0, len(names))
	for _, n := range names {
		chain = append(chain, schema.Exact(n))
	}
	col, ok := headers.Lookup(chain...)
	if !ok {
		return -1
	}
	return col
}
