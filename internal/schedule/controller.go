// Package schedule walks the imported day schedules block by block and
// applies each entered block to the world clock and the placement resolver.
package schedule

import (
	"errors"
	"log/slog"

	"github.com/appengine-ltd/dailysim/internal/content"
	"github.com/appengine-ltd/dailysim/internal/placement"
)

var ErrNotAvailable = errors.New("schedule not available")

// Cursor points at the last entered block. BlockIndex is -1 before the
// first block of Day has been entered.
type Cursor struct {
	Day        int
	BlockIndex int
}

type ClockSetter interface {
	SetHHMM(day int, hhmm string) error
}

type Placer interface {
	Apply(locationID int) (placement.Result, error)
}

type Entered struct {
	Day   int
	Index int
	Block content.Block
}

type Controller struct {
	index     *content.Index
	clock     ClockSetter
	placer    Placer
	cursor    Cursor
	listeners []func(Entered)
	log       *slog.Logger
}

// New builds a controller positioned before the first block of startDay.
// clock and placer may be nil; the missing step is logged on each apply.
func New(index *content.Index, clock ClockSetter, placer Placer, startDay int, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if index == nil {
		index = content.Build(content.Database{})
	}
	return &Controller{
		index:  index,
		clock:  clock,
		placer: placer,
		cursor: Cursor{Day: startDay, BlockIndex: -1},
		log:    log,
	}
}

func (c *Controller) Cursor() Cursor { return c.cursor }

// Reset moves the cursor before the first block of day.
func (c *Controller) Reset(day int) {
	c.cursor = Cursor{Day: day, BlockIndex: -1}
}

func (c *Controller) OnEnter(fn func(Entered)) {
	if fn != nil {
		c.listeners = append(c.listeners, fn)
	}
}

// Current returns the last entered block, if any.
func (c *Controller) Current() (Entered, bool) {
	d, ok := c.index.Day(c.cursor.Day)
	if !ok || c.cursor.BlockIndex < 0 || c.cursor.BlockIndex >= len(d.Blocks) {
		return Entered{}, false
	}
	return Entered{Day: c.cursor.Day, Index: c.cursor.BlockIndex, Block: d.Blocks[c.cursor.BlockIndex]}, true
}

// Advance enters the next block, rolling over to block 0 of the next day
// once the current day is exhausted. On ErrNotAvailable the cursor is left
// unchanged.
func (c *Controller) Advance() (Entered, error) {
	day, ok := c.playableDay(c.cursor.Day)
	if !ok {
		c.log.Warn("no schedule for day", "day", c.cursor.Day)
		return Entered{}, ErrNotAvailable
	}

	next := Cursor{Day: c.cursor.Day, BlockIndex: c.cursor.BlockIndex + 1}
	if next.BlockIndex >= len(day.Blocks) {
		next = Cursor{Day: c.cursor.Day + 1, BlockIndex: 0}
		nextDay, ok := c.playableDay(next.Day)
		if !ok {
			c.log.Info("schedule exhausted", "day", c.cursor.Day, "next_day", next.Day)
			return Entered{}, ErrNotAvailable
		}
		day = nextDay
	}

	c.cursor = next
	ev := Entered{Day: next.Day, Index: next.BlockIndex, Block: day.Blocks[next.BlockIndex]}
	c.apply(ev)
	return ev, nil
}

func (c *Controller) playableDay(n int) (content.Day, bool) {
	d, ok := c.index.Day(n)
	if !ok || len(d.Blocks) == 0 {
		return content.Day{}, false
	}
	return d, true
}

func (c *Controller) apply(ev Entered) {
	b := ev.Block
	c.log.Info("block entered", "day", ev.Day, "index", ev.Index, "time", b.Time, "name", b.Name, "location_id", b.LocationID)

	if c.clock == nil {
		c.log.Error("clock missing, time not applied", "day", ev.Day, "time", b.Time)
	} else if err := c.clock.SetHHMM(ev.Day, b.Time); err != nil {
		c.log.Warn("block time not applied", "day", ev.Day, "time", b.Time, "err", err)
	}

	if b.LocationID != 0 {
		if c.placer == nil {
			c.log.Error("placement resolver missing", "location_id", b.LocationID)
		} else if _, err := c.placer.Apply(b.LocationID); err != nil {
			c.log.Warn("placement not applied", "location_id", b.LocationID, "err", err)
		}
	}

	for _, fn := range append(([]func(Entered))(nil), c.listeners...) {
		fn(ev)
	}
}
