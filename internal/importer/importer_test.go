package importer

import (
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/appengine-ltd/dailysim/internal/content"
	"github.com/appengine-ltd/dailysim/internal/schema"
	"github.com/appengine-ltd/dailysim/internal/workbook"
)

var discard = slog.New(slog.DiscardHandler)

func scheduleSheet() *workbook.Sheet {
	return workbook.FromValues("日程",
		[]any{"日程系统"},
		[]any{"ID", "天数", "时间段A", "名字A", "NPC位置IDA", "起始剧情IDA", "结束剧情IDA", "时间段B", "名字B", "NPC位置IDB", "起始剧情IDB"},
		[]any{1001, 1, "14:00", "午后", 20002, 900002, 0, 0.375, "早上", 20001, 900001},
		[]any{1002, 2, "bad", "x"},
		[]any{},
		[]any{0, 0, "10:00"},
		[]any{"1003", "3", "10.15", "早", "", "", "", "8:00:00"},
	)
}

func locationSheet() *workbook.Sheet {
	return workbook.FromValues("NPC位置",
		[]any{"ID", "备注", "NPC_01", "事件ID", "NPC_02", "事件ID", "NPC_03", "事件ID"},
		[]any{20001, "早餐", "A", 5001, "B", 0, "", 0},
		[]any{20002, "午餐", "C", "", " ", "", "D", 7},
		[]any{0, "no id", "A"},
	)
}

func dialogueSheet() *workbook.Sheet {
	return workbook.FromValues("剧情",
		[]any{"ID", "时间段", "对话角色", "文本"},
		[]any{900001, "10:15", "主角", "你好"},
		[]any{900001, "", "女主A", "嗨"},
		[]any{900002, "", "", ""},
		[]any{"", "", "x", "orphan"},
		[]any{900003, 0.5, "", "中午"},
	)
}

func TestParseScheduleBuildsSortedDays(t *testing.T) {
	days, rep := ParseSchedule(scheduleSheet(), DefaultBlockKeys, discard)
	if rep.Err != nil {
		t.Fatalf("unexpected error: %v", rep.Err)
	}
	if rep.HeaderRow != 1 || rep.Rows != 4 || rep.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d: %+v", len(days), days)
	}

	day1 := days[0]
	want := []content.Block{
		{Time: "09:00", Name: "早上", LocationID: 20001, StartDialogueID: 900001},
		{Time: "14:00", Name: "午后", LocationID: 20002, StartDialogueID: 900002},
	}
	if !reflect.DeepEqual(day1.Blocks, want) {
		t.Fatalf("day 1 blocks=%+v want=%+v", day1.Blocks, want)
	}

	if days[1].DayNumber != 2 || len(days[1].Blocks) != 0 {
		t.Fatalf("expected day 2 retained with no blocks, got %+v", days[1])
	}

	day3 := days[2]
	if day3.ID != 1003 || day3.DayNumber != 3 {
		t.Fatalf("expected text ids to coerce, got %+v", day3)
	}
	if len(day3.Blocks) != 2 || day3.Blocks[0].Time != "08:00" || day3.Blocks[1].Time != "10:15" {
		t.Fatalf("unexpected day 3 blocks: %+v", day3.Blocks)
	}
}

func TestParseScheduleFailsClosedOnMissingColumn(t *testing.T) {
	sheet := workbook.FromValues("日程",
		[]any{"ID", "天数备注", "时间段A"},
		[]any{1001, 1, "10:00"},
	)
	days, rep := ParseSchedule(sheet, DefaultBlockKeys, discard)
	if len(days) != 0 {
		t.Fatalf("expected no partial result, got %+v", days)
	}
	if !errors.Is(rep.Err, schema.ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", rep.Err)
	}
}

func TestParseScheduleWithoutHeader(t *testing.T) {
	sheet := workbook.FromValues("日程", []any{"foo", "bar"}, []any{1, 2})
	days, rep := ParseSchedule(sheet, DefaultBlockKeys, discard)
	if len(days) != 0 || !errors.Is(rep.Err, schema.ErrHeaderNotFound) {
		t.Fatalf("expected header failure, got days=%+v err=%v", days, rep.Err)
	}
}

func TestParseScheduleEnglishHeaders(t *testing.T) {
	sheet := workbook.FromValues("Schedule",
		[]any{"ID", "Day", "Time A", "Name A", "Location ID A", "Time B", "Name B"},
		[]any{1, 1, "18:30", "dinner", 3, "07:00", "wake"},
	)
	days, rep := ParseSchedule(sheet, DefaultBlockKeys, discard)
	if rep.Err != nil {
		t.Fatalf("unexpected error: %v", rep.Err)
	}
	if len(days) != 1 || len(days[0].Blocks) != 2 {
		t.Fatalf("unexpected days: %+v", days)
	}
	if days[0].Blocks[0].Name != "wake" || days[0].Blocks[1].LocationID != 3 {
		t.Fatalf("unexpected blocks: %+v", days[0].Blocks)
	}
}

func TestTimeBlockKeys(t *testing.T) {
	got := TimeBlockKeys([]string{"id", "时间段c", "时间段a", "时间段", "时间段a", "名字a"}, "时间段", DefaultBlockKeys)
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("keys=%v", got)
	}
	got = TimeBlockKeys([]string{"id", "天数"}, "时间段", DefaultBlockKeys)
	if !reflect.DeepEqual(got, DefaultBlockKeys) {
		t.Fatalf("expected fallback keys, got %v", got)
	}
}

func TestSortBlocksStableWithInvalidLast(t *testing.T) {
	blocks := []content.Block{
		{Time: "14:00", Name: "a"},
		{Time: "??", Name: "broken"},
		{Time: "09:30", Name: "b"},
		{Time: "09:30", Name: "c"},
	}
	SortBlocks(blocks)
	var names []string
	for _, b := range blocks {
		names = append(names, b.Name)
	}
	if !reflect.DeepEqual(names, []string{"b", "c", "a", "broken"}) {
		t.Fatalf("order=%v", names)
	}
}

func TestParseLocationsPaired(t *testing.T) {
	for _, strategy := range []LocationStrategy{LocationAuto, LocationPaired, LocationInferred} {
		sets, rep := ParseLocations(locationSheet(), strategy, discard)
		if rep.Err != nil {
			t.Fatalf("%s: unexpected error: %v", strategy, rep.Err)
		}
		if len(sets) != 2 || rep.Skipped != 1 {
			t.Fatalf("%s: expected 2 sets and 1 skipped row, got %d / %+v", strategy, len(sets), rep)
		}
		want := []content.Placement{
			{NPCID: "NPC_01", AnchorID: "A", EventID: 5001},
			{NPCID: "NPC_02", AnchorID: "B"},
		}
		if sets[0].Note != "早餐" || !reflect.DeepEqual(sets[0].Placements, want) {
			t.Fatalf("%s: set 20001=%+v", strategy, sets[0])
		}
		want = []content.Placement{
			{NPCID: "NPC_01", AnchorID: "C"},
			{NPCID: "NPC_03", AnchorID: "D", EventID: 7},
		}
		if !reflect.DeepEqual(sets[1].Placements, want) {
			t.Fatalf("%s: set 20002=%+v", strategy, sets[1])
		}
	}
}

func TestParseLocationsAutoFallsBackPerRow(t *testing.T) {
	sheet := workbook.FromValues("NPC",
		[]any{"ID", "备注", "NPC_01", "NPC_02", "事件ID", "NPC_03"},
		[]any{1, "", "A", "B", 9, "C"},
		[]any{2, "", "A", "", 0, "C"},
	)
	sets, _ := ParseLocations(sheet, LocationAuto, discard)
	if len(sets) != 2 {
		t.Fatalf("expected 2 sets, got %+v", sets)
	}
	if !reflect.DeepEqual(sets[0].Placements, []content.Placement{{NPCID: "NPC_02", AnchorID: "B", EventID: 9}}) {
		t.Fatalf("expected inferred slot for row 1, got %+v", sets[0].Placements)
	}
	if !reflect.DeepEqual(sets[1].Placements, []content.Placement{{NPCID: "NPC_01", AnchorID: "A"}}) {
		t.Fatalf("expected paired fallback for row 2, got %+v", sets[1].Placements)
	}

	inferredOnly, _ := ParseLocations(sheet, LocationInferred, discard)
	if len(inferredOnly[1].Placements) != 0 {
		t.Fatalf("expected no placements for row 2 under inferred, got %+v", inferredOnly[1].Placements)
	}
}

func TestParseLocationsUnknownNoteHeader(t *testing.T) {
	sheet := workbook.FromValues("NPC",
		[]any{"ID", "Remark", "NPC_01", "事件ID", "NPC_02", "事件ID"},
		[]any{1, "breakfast", "A", 5, "B", 6},
		[]any{2, "nobody home", "", 0, "", 0},
	)
	wantFirst := []content.Placement{
		{NPCID: "NPC_01", AnchorID: "A", EventID: 5},
		{NPCID: "NPC_02", AnchorID: "B", EventID: 6},
	}
	for _, strategy := range []LocationStrategy{LocationAuto, LocationPaired, LocationInferred} {
		sets, rep := ParseLocations(sheet, strategy, discard)
		if rep.Err != nil {
			t.Fatalf("%s: unexpected error: %v", strategy, rep.Err)
		}
		if len(sets) != 2 {
			t.Fatalf("%s: expected 2 sets, got %+v", strategy, sets)
		}
		if !reflect.DeepEqual(sets[0].Placements, wantFirst) {
			t.Fatalf("%s: set 1 placements=%+v want=%+v", strategy, sets[0].Placements, wantFirst)
		}
		if sets[0].Note != "breakfast" || sets[1].Note != "nobody home" {
			t.Fatalf("%s: notes=%q,%q", strategy, sets[0].Note, sets[1].Note)
		}
		if len(sets[1].Placements) != 0 {
			t.Fatalf("%s: all-absent row must have no placements, got %+v", strategy, sets[1].Placements)
		}
	}
}

func TestParseLocationsWithoutNoteColumn(t *testing.T) {
	sheet := workbook.FromValues("NPC",
		[]any{"ID", "NPC_01", "事件ID"},
		[]any{3, "C", 0},
	)
	sets, _ := ParseLocations(sheet, LocationAuto, discard)
	if len(sets) != 1 || !reflect.DeepEqual(sets[0].Placements, []content.Placement{{NPCID: "NPC_01", AnchorID: "C"}}) {
		t.Fatalf("unexpected sets: %+v", sets)
	}
	if sets[0].Note != "" {
		t.Fatalf("expected empty note, got %q", sets[0].Note)
	}
}

func TestParseDialogue(t *testing.T) {
	lines, rep := ParseDialogue(dialogueSheet(), discard)
	if rep.Err != nil {
		t.Fatalf("unexpected error: %v", rep.Err)
	}
	want := []content.DialogueLine{
		{DialogueID: 900001, Time: "10:15", Speaker: "主角", Text: "你好"},
		{DialogueID: 900001, Speaker: "女主A", Text: "嗨"},
		{DialogueID: 900003, Time: "12:00", Text: "中午"},
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("lines=%+v want=%+v", lines, want)
	}
	if rep.Skipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", rep.Skipped)
	}
}

func TestParseDialogueOptionalColumnsAndTypos(t *testing.T) {
	sheet := workbook.FromValues("Dialogue",
		[]any{"ID", "Speker", "Text"},
		[]any{7, "guard", "halt"},
	)
	lines, rep := ParseDialogue(sheet, discard)
	if rep.Err != nil || len(lines) != 1 {
		t.Fatalf("unexpected result lines=%+v err=%v", lines, rep.Err)
	}
	if lines[0].Speaker != "guard" || lines[0].Time != "" {
		t.Fatalf("unexpected line: %+v", lines[0])
	}

	contentOnly := workbook.FromValues("剧情", []any{"ID", "内容"}, []any{8, "only text"})
	lines, _ = ParseDialogue(contentOnly, discard)
	if len(lines) != 1 || lines[0].Speaker != "" || lines[0].Text != "only text" {
		t.Fatalf("expected content column fallback, got %+v", lines)
	}
}

func TestImportIsolatesMissingSheet(t *testing.T) {
	wb := workbook.New(scheduleSheet(), dialogueSheet(), workbook.FromValues("Notes"))
	db, rep := Import(wb, Options{Logger: discard})

	if rep.Complete() {
		t.Fatalf("expected incomplete report")
	}
	if len(db.Days) != 3 || len(db.Dialogue) != 3 {
		t.Fatalf("expected other builders to run, got days=%d lines=%d", len(db.Days), len(db.Dialogue))
	}
	if len(db.PlacementSets) != 0 {
		t.Fatalf("expected no placement sets, got %+v", db.PlacementSets)
	}
	if !errors.Is(rep.Err(), schema.ErrSheetNotFound) {
		t.Fatalf("expected ErrSheetNotFound in report, got %v", rep.Err())
	}
	if !reflect.DeepEqual(rep.Existing, []string{"日程", "剧情", "Notes"}) {
		t.Fatalf("existing=%v", rep.Existing)
	}
}

func TestImportComplete(t *testing.T) {
	wb := workbook.New(scheduleSheet(), locationSheet(), dialogueSheet())
	db, rep := Import(wb, Options{Logger: discard})
	if !rep.Complete() || rep.Err() != nil {
		t.Fatalf("expected complete import: %s", rep)
	}
	idx := content.Build(db)
	if _, ok := idx.PlacementSet(20002); !ok {
		t.Fatalf("expected placement set 20002 in index")
	}
	if lines, _ := idx.Dialogue(900001); len(lines) != 2 {
		t.Fatalf("expected two lines for 900001, got %+v", lines)
	}
}
