// Package report renders an imported database as markdown reference pages.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/appengine-ltd/dailysim/internal/content"
)

type File struct {
	Name    string
	Title   string
	Content string
}

func Files(db content.Database) []File {
	return []File{
		schedulePage(db),
		placementPage(db),
		dialoguePage(db),
	}
}

func Index(files []File) string {
	var b strings.Builder
	b.WriteString("# Daily System Reference\n\n")
	b.WriteString("Generated from the imported workbook using `dailysim docs`.\n\n")
	for _, f := range files {
		b.WriteString(fmt.Sprintf("- [%s](./%s)\n", f.Title, f.Name))
	}
	return b.String()
}

// Markdown renders every page into a single document.
func Markdown(db content.Database) string {
	var b strings.Builder
	for i, f := range Files(db) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.Content)
	}
	return b.String()
}

func schedulePage(db content.Database) File {
	days := append([]content.Day(nil), db.Days...)
	sort.SliceStable(days, func(i, j int) bool { return days[i].DayNumber < days[j].DayNumber })

	blocks := 0
	for _, d := range days {
		blocks += len(d.Blocks)
	}

	var b strings.Builder
	b.WriteString("# Schedule\n\n")
	b.WriteString(fmt.Sprintf("Total days: **%d**, blocks: **%d**.\n\n", len(days), blocks))
	b.WriteString("| Day | ID | # | Time | Name | Location | Start Dialogue | End Dialogue |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- |\n")
	for _, d := range days {
		if len(d.Blocks) == 0 {
			b.WriteString(fmt.Sprintf("| %d | %d | - | - | _no blocks_ | | | |\n", d.DayNumber, d.ID))
			continue
		}
		for i, blk := range d.Blocks {
			b.WriteString("| ")
			b.WriteString(strconv.Itoa(d.DayNumber))
			b.WriteString(" | ")
			b.WriteString(strconv.Itoa(d.ID))
			b.WriteString(" | ")
			b.WriteString(strconv.Itoa(i))
			b.WriteString(" | ")
			b.WriteString(escape(blk.Time))
			b.WriteString(" | ")
			b.WriteString(escape(blk.Name))
			b.WriteString(" | ")
			b.WriteString(optionalID(blk.LocationID))
			b.WriteString(" | ")
			b.WriteString(optionalID(blk.StartDialogueID))
			b.WriteString(" | ")
			b.WriteString(optionalID(blk.EndDialogueID))
			b.WriteString(" |\n")
		}
	}
	return File{Name: "schedule.md", Title: "Schedule", Content: b.String()}
}

func placementPage(db content.Database) File {
	sets := append([]content.PlacementSet(nil), db.PlacementSets...)
	sort.SliceStable(sets, func(i, j int) bool { return sets[i].ID < sets[j].ID })

	var b strings.Builder
	b.WriteString("# NPC Placement\n\n")
	b.WriteString(fmt.Sprintf("Total placement sets: **%d**.\n\n", len(sets)))
	b.WriteString("| Location | Note | NPC | Anchor | Event |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, set := range sets {
		if len(set.Placements) == 0 {
			b.WriteString(fmt.Sprintf("| %d | %s | _none_ | | |\n", set.ID, escape(set.Note)))
			continue
		}
		for _, p := range set.Placements {
			b.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				set.ID, escape(set.Note), escape(p.NPCID), escape(p.AnchorID), optionalID(p.EventID)))
		}
	}
	return File{Name: "placement.md", Title: "NPC Placement", Content: b.String()}
}

func dialoguePage(db content.Database) File {
	ids := make([]int, 0)
	lines := make(map[int][]content.DialogueLine)
	for _, l := range db.Dialogue {
		if _, ok := lines[l.DialogueID]; !ok {
			ids = append(ids, l.DialogueID)
		}
		lines[l.DialogueID] = append(lines[l.DialogueID], l)
	}
	sort.Ints(ids)

	var b strings.Builder
	b.WriteString("# Dialogue\n\n")
	b.WriteString(fmt.Sprintf("Total sequences: **%d**, lines: **%d**.\n\n", len(ids), len(db.Dialogue)))
	for _, id := range ids {
		b.WriteString(fmt.Sprintf("## %d\n\n", id))
		b.WriteString("| Time | Speaker | Text |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, l := range lines[id] {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", escape(l.Time), escape(l.Speaker), escape(l.Text)))
		}
		b.WriteString("\n")
	}
	return File{Name: "dialogue.md", Title: "Dialogue", Content: b.String()}
}

func optionalID(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func escape(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "|", "\\|")
	v = strings.ReplaceAll(v, "\n", "<br>")
	return v
}
