package placement

import (
	"errors"
	"testing"

	"github.com/appengine-ltd/dailysim/internal/content"
)

func at(x, y, z, yaw float64) Transform {
	return Transform{Position: Vec3{X: x, Y: y, Z: z}, Rotation: Vec3{Y: yaw}}
}

func testIndex() *content.Index {
	return content.Build(content.Database{
		PlacementSets: []content.PlacementSet{
			{ID: 20001, Placements: []content.Placement{
				{NPCID: "NPC_01", AnchorID: "A"},
				{NPCID: "NPC_02", AnchorID: "Z"},
				{NPCID: "NPC_99", AnchorID: "A"},
				{NPCID: " NPC_03 ", AnchorID: " B "},
			}},
		},
	})
}

func TestApplySkipsUnresolvedWithoutAborting(t *testing.T) {
	npcs := NewRegistry("npc", nil)
	anchors := NewRegistry("anchor", nil)
	n1 := NewHandle("NPC_01", at(0, 0, 0, 0))
	n2 := NewHandle("NPC_02", at(9, 9, 9, 0))
	n3 := NewHandle("NPC_03", at(0, 0, 0, 0))
	if err := npcs.RegisterAll(n1, n2, n3); err != nil {
		t.Fatalf("register npcs: %v", err)
	}
	if err := anchors.RegisterAll(NewHandle("A", at(1, 2, 3, 90)), NewHandle("B", at(4, 5, 6, 180))); err != nil {
		t.Fatalf("register anchors: %v", err)
	}

	res, err := NewResolver(testIndex(), npcs, anchors, nil).Apply(20001)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if n1.T != at(1, 2, 3, 90) {
		t.Fatalf("NPC_01 not moved: %+v", n1.T)
	}
	if n2.T != at(9, 9, 9, 0) {
		t.Fatalf("NPC_02 must stay put when its anchor is unknown: %+v", n2.T)
	}
	if n3.T != at(4, 5, 6, 180) {
		t.Fatalf("NPC_03 not moved with trimmed ids: %+v", n3.T)
	}
	if len(res.Moved) != 2 || len(res.Skipped) != 2 {
		t.Fatalf("moved=%d skipped=%d", len(res.Moved), len(res.Skipped))
	}
	for _, s := range res.Skipped {
		if !errors.Is(s.Reason, ErrNotResolved) {
			t.Fatalf("unexpected skip reason: %v", s.Reason)
		}
	}
}

func TestApplyMissingSet(t *testing.T) {
	r := NewResolver(testIndex(), NewRegistry("npc", nil), NewRegistry("anchor", nil), nil)
	if _, err := r.Apply(404); !errors.Is(err, ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound, got %v", err)
	}
}

func TestApplyWithoutRegistries(t *testing.T) {
	r := NewResolver(testIndex(), nil, nil, nil)
	if _, err := r.Apply(20001); !errors.Is(err, ErrNoRegistries) {
		t.Fatalf("expected ErrNoRegistries, got %v", err)
	}
}

func TestDuplicateAnchorFirstWins(t *testing.T) {
	anchors := NewRegistry("anchor", nil)
	if err := anchors.Register(NewHandle("A", at(1, 1, 1, 0))); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := anchors.Register(NewHandle(" A ", at(7, 7, 7, 0)))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	got, ok := anchors.Get("A")
	if !ok || got.Transform() != at(1, 1, 1, 0) {
		t.Fatalf("expected first anchor, got %+v ok=%v", got, ok)
	}
	if anchors.Len() != 1 {
		t.Fatalf("expected one anchor, got %d", anchors.Len())
	}
}

func TestRegisterRejectsBlankIDs(t *testing.T) {
	r := NewRegistry("npc", nil)
	if err := r.Register(NewHandle("  ", Transform{})); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
	if _, ok := r.Get(""); ok {
		t.Fatalf("expected blank lookup to miss")
	}
}
