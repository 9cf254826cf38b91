// Package importer turns the schedule, NPC-location and dialogue sheets of a
// workbook into a content.Database. A sheet that cannot be resolved yields
// an empty collection and a diagnostic; it never stops the other builders.
package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/appengine-ltd/dailysim/internal/content"
	"github.com/appengine-ltd/dailysim/internal/schema"
	"github.com/appengine-ltd/dailysim/internal/workbook"
)

type LocationStrategy string

const (
	LocationAuto     LocationStrategy = "auto"
	LocationPaired   LocationStrategy = "paired"
	LocationInferred LocationStrategy = "inferred"
)

var (
	DefaultScheduleSheets = []string{"日程系统", "日程", "Schedule", "ScheduleSystem"}
	DefaultLocationSheets = []string{"NPC位置", "Npc位置", "NPC", "NpcLocation", "NpcLocationSystem"}
	DefaultDialogueSheets = []string{"剧情", "对话", "剧情系统", "Dialogue", "Dialog"}
	DefaultBlockKeys      = []string{"A", "B", "C", "D", "E", "F"}
)

type Options struct {
	ScheduleSheets   []string
	LocationSheets   []string
	DialogueSheets   []string
	BlockKeys        []string
	LocationStrategy LocationStrategy
	Logger           *slog.Logger
}

func (o Options) withDefaults() Options {
	if len(o.ScheduleSheets) == 0 {
		o.ScheduleSheets = DefaultScheduleSheets
	}
	if len(o.LocationSheets) == 0 {
		o.LocationSheets = DefaultLocationSheets
	}
	if len(o.DialogueSheets) == 0 {
		o.DialogueSheets = DefaultDialogueSheets
	}
	if len(o.BlockKeys) == 0 {
		o.BlockKeys = DefaultBlockKeys
	}
	if o.LocationStrategy == "" {
		o.LocationStrategy = LocationAuto
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

type SheetReport struct {
	Kind      string
	Sheet     string
	HeaderRow int
	Rows      int
	Skipped   int
	Err       error
}

type Report struct {
	Sheets   []SheetReport
	Existing []string
}

// Complete is false when any of the three sheets was missing or unreadable.
func (r Report) Complete() bool {
	for _, s := range r.Sheets {
		if s.Err != nil {
			return false
		}
	}
	return true
}

func (r Report) Err() error {
	var errs []error
	for _, s := range r.Sheets {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Kind, s.Err))
		}
	}
	return errors.Join(errs...)
}

func (r Report) String() string {
	var b strings.Builder
	for _, s := range r.Sheets {
		if s.Err != nil {
			fmt.Fprintf(&b, "%s: %v\n", s.Kind, s.Err)
			continue
		}
		fmt.Fprintf(&b, "%s: sheet=%q header_row=%d rows=%d skipped=%d\n", s.Kind, s.Sheet, s.HeaderRow, s.Rows, s.Skipped)
	}
	return b.String()
}

// Import runs all three builders against wb.
func Import(wb *workbook.Workbook, opts Options) (content.Database, Report) {
	opts = opts.withDefaults()
	log := opts.Logger
	report := Report{Existing: wb.SheetNames()}

	var db content.Database

	days, rep := resolveAndBuild(wb, "schedule", opts.ScheduleSheets, log, func(s *workbook.Sheet) ([]content.Day, SheetReport) {
		return ParseSchedule(s, opts.BlockKeys, log)
	})
	db.Days = days
	report.Sheets = append(report.Sheets, rep)

	sets, rep := resolveAndBuild(wb, "npc_location", opts.LocationSheets, log, func(s *workbook.Sheet) ([]content.PlacementSet, SheetReport) {
		return ParseLocations(s, opts.LocationStrategy, log)
	})
	db.PlacementSets = sets
	report.Sheets = append(report.Sheets, rep)

	lines, rep := resolveAndBuild(wb, "dialogue", opts.DialogueSheets, log, func(s *workbook.Sheet) ([]content.DialogueLine, SheetReport) {
		return ParseDialogue(s, log)
	})
	db.Dialogue = lines
	report.Sheets = append(report.Sheets, rep)

	log.Info("import done",
		"schedule_days", len(db.Days),
		"npc_sets", len(db.PlacementSets),
		"dialogue_lines", len(db.Dialogue),
		"complete", report.Complete(),
	)
	return db, report
}

func resolveAndBuild[T any](wb *workbook.Workbook, kind string, candidates []string, log *slog.Logger, build func(*workbook.Sheet) ([]T, SheetReport)) ([]T, SheetReport) {
	sheet, err := schema.ResolveSheet(wb, candidates)
	if err != nil {
		log.Error("cannot find sheet", "kind", kind, "err", err)
		return nil, SheetReport{Kind: kind, HeaderRow: -1, Err: err}
	}
	out, rep := build(sheet)
	rep.Kind = kind
	rep.Sheet = sheet.Name
	return out, rep
}

// detectProfile picks the first vocabulary whose keywords form a header row.
func detectProfile[P interface{ required() []string }](sheet *workbook.Sheet, profiles []P) (P, int, error) {
	var zero P
	var lastErr error
	for _, p := range profiles {
		row, err := schema.DetectHeaderRow(sheet, p.required())
		if err == nil {
			return p, row, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = schema.ErrHeaderNotFound
	}
	return zero, -1, lastErr
}
