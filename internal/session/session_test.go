package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/appengine-ltd/dailysim/internal/clock"
	"github.com/appengine-ltd/dailysim/internal/content"
	"github.com/appengine-ltd/dailysim/internal/placement"
	"github.com/appengine-ltd/dailysim/internal/schedule"
	"github.com/appengine-ltd/dailysim/internal/settings"
)

func testSession(t *testing.T) *Session {
	t.Helper()
	db := content.Database{
		Days: []content.Day{{ID: 1, DayNumber: 1, Blocks: []content.Block{
			{Time: "08:00", Name: "Breakfast", LocationID: 20001, StartDialogueID: 101},
			{Time: "12:30", Name: "Lunch"},
		}}},
		PlacementSets: []content.PlacementSet{{ID: 20001, Placements: []content.Placement{
			{NPCID: "NPC_01", AnchorID: "Door"},
			{NPCID: "NPC_02", AnchorID: "Nowhere"},
		}}},
		Dialogue: []content.DialogueLine{
			{DialogueID: 101, Speaker: "Baker", Text: "Morning!"},
			{DialogueID: 101, Text: "The oven hums."},
		},
	}
	scene := settings.Scene{
		Anchors: []settings.SceneEntity{{ID: "Door", Position: placement.Vec3{X: 1, Z: 2}, Rotation: placement.Vec3{Y: 90}}},
		NPCs:    []settings.SceneEntity{{ID: "NPC_01"}, {ID: "NPC_02"}, {ID: "NPC_01"}},
	}
	s, err := New(db, Options{
		StartDay:  1,
		StartTime: "00:00",
		Triggers:  []clock.Trigger{{ID: "dawn", Hour: 6}},
		Scene:     scene,
		Plain:     true,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func run(t *testing.T, s *Session, line string) (string, error) {
	t.Helper()
	return s.Execute(s.Parser().Parse(line))
}

func TestNextEntersBlockAndPlaysDialogue(t *testing.T) {
	s := testSession(t)
	out, err := run(t, s, "next")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	trigger := strings.Index(out, "trigger dawn fired at day 1 06:00")
	enter := strings.Index(out, "[day 1] enter 08:00 (Breakfast) loc=20001 start=101")
	if trigger < 0 || enter < 0 || trigger > enter {
		t.Fatalf("unexpected output order:\n%s", out)
	}
	if !strings.Contains(out, "  Baker: Morning!") || !strings.Contains(out, "  The oven hums.") {
		t.Fatalf("dialogue not played:\n%s", out)
	}
	who, _ := run(t, s, "who")
	if !strings.Contains(who, "NPC_01 at (1, 0, 2) yaw 90") {
		t.Fatalf("NPC_01 not placed:\n%s", who)
	}
	if !strings.Contains(who, "NPC_02 at (0, 0, 0) yaw 0") {
		t.Fatalf("NPC_02 must stay put:\n%s", who)
	}
}

func TestNextReportsExhaustedSchedule(t *testing.T) {
	s := testSession(t)
	run(t, s, "next")
	run(t, s, "next")
	out, err := run(t, s, "next")
	if !errors.Is(err, schedule.ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
	if !strings.Contains(out, "no schedule block available after day 1") {
		t.Fatalf("unexpected output: %q", out)
	}
	if cur := s.Controller().Cursor(); cur != (schedule.Cursor{Day: 1, BlockIndex: 1}) {
		t.Fatalf("cursor moved: %+v", cur)
	}
}

func TestAdvanceUsesQuantityOrStep(t *testing.T) {
	s := testSession(t)
	out, err := run(t, s, "wait 2h")
	if err != nil || !strings.Contains(out, "advanced 120 min, now day 1 02:00") {
		t.Fatalf("out=%q err=%v", out, err)
	}
	out, err = run(t, s, "advance")
	if err != nil || !strings.Contains(out, "advanced 15 min, now day 1 02:15") {
		t.Fatalf("out=%q err=%v", out, err)
	}
}

func TestSetCrossesDay(t *testing.T) {
	s := testSession(t)
	out, err := run(t, s, "set 2 5.45")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(out, "-- day 2 begins --") || !strings.Contains(out, "clock set to day 2 05:45") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "trigger dawn fired at day 1 06:00") {
		t.Fatalf("tail of day 1 must fire dawn:\n%s", out)
	}
	if strings.Contains(out, "fired at day 2") {
		t.Fatalf("dawn must not fire on day 2 before 06:00:\n%s", out)
	}
	if _, err := run(t, s, "set 2 25:00"); !errors.Is(err, ErrBadArgs) {
		t.Fatalf("expected ErrBadArgs, got %v", err)
	}
}

func TestPlaceUnknownSet(t *testing.T) {
	s := testSession(t)
	if _, err := run(t, s, "place 999"); !errors.Is(err, placement.ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound, got %v", err)
	}
}

func TestClarifyAndQuit(t *testing.T) {
	s := testSession(t)
	if _, err := run(t, s, "set 2"); !errors.Is(err, ErrNeedsInput) {
		t.Fatalf("expected ErrNeedsInput, got %v", err)
	}
	if _, err := run(t, s, "quit"); !errors.Is(err, ErrQuit) {
		t.Fatalf("expected ErrQuit, got %v", err)
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	s := testSession(t)
	var out bytes.Buffer
	in := strings.NewReader("next\ntriggers\nquit\nnext\n")
	if err := s.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Breakfast") || !strings.Contains(text, "dawn 06:00 fired") || !strings.Contains(text, "bye") {
		t.Fatalf("unexpected transcript:\n%s", text)
	}
	if strings.Contains(text, "Lunch") {
		t.Fatalf("input after quit must not run:\n%s", text)
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	s := testSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, strings.NewReader("next\n"), &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunStopsWhileWaitingForInput(t *testing.T) {
	s := testSession(t)
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, pr, io.Discard) }()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return after cancellation")
	}
}

func TestJumpClampsToFirstDay(t *testing.T) {
	s := testSession(t)
	out, err := run(t, s, "jump 0")
	if err != nil {
		t.Fatalf("jump: %v", err)
	}
	if !strings.Contains(out, "schedule reset to day 1") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if cur := s.Controller().Cursor(); cur != (schedule.Cursor{Day: 1, BlockIndex: -1}) {
		t.Fatalf("cursor=%+v want day 1 before first block", cur)
	}
	if day := s.Clock().Day(); day != 1 {
		t.Fatalf("clock day=%d want=1", day)
	}
}
