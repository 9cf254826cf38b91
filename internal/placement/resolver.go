package placement

import (
	"fmt"
	"log/slog"

	"github.com/appengine-ltd/dailysim/internal/content"
)

type Skip struct {
	Placement content.Placement
	Reason    error
}

type Result struct {
	LocationID int
	Moved      []content.Placement
	Skipped    []Skip
}

// Resolver applies placement sets against an NPC and an anchor registry.
type Resolver struct {
	index   *content.Index
	npcs    *Registry
	anchors *Registry
	log     *slog.Logger
}

func NewResolver(index *content.Index, npcs, anchors *Registry, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Resolver{index: index, npcs: npcs, anchors: anchors, log: log}
}

// Apply moves every resolvable NPC of the set onto its anchor. One
// unresolved npc or anchor only skips that placement.
func (r *Resolver) Apply(locationID int) (Result, error) {
	res := Result{LocationID: locationID}
	set, ok := r.index.PlacementSet(locationID)
	if !ok {
		r.log.Warn("placement set not found", "location_id", locationID)
		return res, fmt.Errorf("%w: %d", ErrSetNotFound, locationID)
	}
	if r.npcs == nil || r.anchors == nil {
		r.log.Error("placement registries missing", "location_id", locationID)
		return res, ErrNoRegistries
	}

	for _, p := range set.Placements {
		npc, ok := r.npcs.Get(p.NPCID)
		if !ok {
			r.log.Warn("npc not found", "location_id", locationID, "npc", p.NPCID)
			res.Skipped = append(res.Skipped, Skip{Placement: p, Reason: fmt.Errorf("npc %q: %w", p.NPCID, ErrNotResolved)})
			continue
		}
		anchor, ok := r.anchors.Get(p.AnchorID)
		if !ok {
			r.log.Warn("anchor not found", "location_id", locationID, "anchor", p.AnchorID)
			res.Skipped = append(res.Skipped, Skip{Placement: p, Reason: fmt.Errorf("anchor %q: %w", p.AnchorID, ErrNotResolved)})
			continue
		}
		npc.SetTransform(anchor.Transform())
		res.Moved = append(res.Moved, p)
	}
	r.log.Info("placement applied", "location_id", locationID, "moved", len(res.Moved), "skipped", len(res.Skipped))
	return res, nil
}
