// Package placement moves NPCs onto named anchors according to the
// placement sets in the content index.
package placement

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

var (
	ErrSetNotFound  = errors.New("placement set not found")
	ErrDuplicateID  = errors.New("duplicate id")
	ErrNotResolved  = errors.New("entity not resolved")
	ErrEmptyID      = errors.New("empty id")
	ErrNoRegistries = errors.New("registries not configured")
)

type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// Transform is a position plus yaw/pitch/roll in degrees.
type Transform struct {
	Position Vec3 `yaml:"position" json:"position"`
	Rotation Vec3 `yaml:"rotation" json:"rotation"`
}

// Entity is anything the resolver can move or read a transform from.
type Entity interface {
	ID() string
	Transform() Transform
	SetTransform(Transform)
}

// Handle is the in-memory Entity used for scene files and tests.
type Handle struct {
	Key string
	T   Transform
}

func NewHandle(id string, t Transform) *Handle {
	return &Handle{Key: id, T: t}
}

func (h *Handle) ID() string               { return h.Key }
func (h *Handle) Transform() Transform     { return h.T }
func (h *Handle) SetTransform(t Transform) { h.T = t }

// Registry maps trimmed ids to entities. Registration is a one-time build
// step; the first entity registered under an id wins.
type Registry struct {
	kind string
	byID map[string]Entity
	log  *slog.Logger
}

func NewRegistry(kind string, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Registry{kind: kind, byID: make(map[string]Entity), log: log}
}

// Register adds e. Blank and duplicate ids are logged and dropped.
func (r *Registry) Register(e Entity) error {
	if e == nil {
		return fmt.Errorf("%s: %w", r.kind, ErrEmptyID)
	}
	id := strings.TrimSpace(e.ID())
	if id == "" {
		return fmt.Errorf("%s: %w", r.kind, ErrEmptyID)
	}
	if _, dup := r.byID[id]; dup {
		err := fmt.Errorf("%s %q: %w", r.kind, id, ErrDuplicateID)
		r.log.Error("duplicate registration dropped", "kind", r.kind, "id", id)
		return err
	}
	r.byID[id] = e
	return nil
}

// RegisterAll registers every entity and joins the errors of the ones
// that were dropped.
func (r *Registry) RegisterAll(entities ...Entity) error {
	var errs []error
	for _, e := range entities {
		if err := r.Register(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) Get(id string) (Entity, bool) {
	if r == nil {
		return nil, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	e, ok := r.byID[id]
	return e, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byID)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
