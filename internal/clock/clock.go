// Package clock owns the simulated day and minute of day, notifies
// listeners when either changes, and fires named time-of-day triggers as
// the clock crosses them.
package clock

import (
	"fmt"
	"log/slog"

	"github.com/appengine-ltd/dailysim/internal/schema"
)

const (
	MinutesPerDay = schema.MinutesPerDay
	LastMinute    = MinutesPerDay - 1
)

type State struct {
	Day    int
	Minute int
}

func (s State) String() string {
	return fmt.Sprintf("day %d %s", s.Day, FormatMinutes(s.Minute))
}

type DayChanged struct {
	Previous int
	Current  int
}

type TimeChanged struct {
	Previous State
	Current  State
}

// Clock is the only writer of the simulated time. AdvanceMinutes and
// SetAbsolute are its two entry points; both notify before returning.
type Clock struct {
	state State
	next  Subscription
	days  observers[DayChanged]
	times observers[TimeChanged]
	log   *slog.Logger
}

func New(day, minute int, log *slog.Logger) *Clock {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Clock{state: State{Day: clampDay(day), Minute: clampMinute(minute)}, log: log}
}

func (c *Clock) State() State { return c.state }
func (c *Clock) Day() int     { return c.state.Day }
func (c *Clock) Minute() int  { return c.state.Minute }

func (c *Clock) OnDayChanged(fn func(DayChanged)) Subscription {
	c.next++
	c.days.add(c.next, fn)
	return c.next
}

func (c *Clock) OnTimeChanged(fn func(TimeChanged)) Subscription {
	c.next++
	c.times.add(c.next, fn)
	return c.next
}

func (c *Clock) Unsubscribe(id Subscription) bool {
	return c.days.remove(id) || c.times.remove(id)
}

// AdvanceMinutes moves forward n minutes, rolling whole days over. n <= 0
// does nothing.
func (c *Clock) AdvanceMinutes(n int) {
	if n <= 0 {
		return
	}
	prev := c.state
	total := c.state.Minute + n
	c.state.Day += total / MinutesPerDay
	c.state.Minute = total % MinutesPerDay
	c.publish(prev)
}

// SetAbsolute jumps to day/minute. The day is clamped to >= 1 and the
// minute into [0, 1439]. Time-changed is always emitted.
func (c *Clock) SetAbsolute(day, minute int) {
	prev := c.state
	c.state = State{Day: clampDay(day), Minute: clampMinute(minute)}
	c.publish(prev)
}

// SetHHMM is SetAbsolute with a canonical "HH:MM" time.
func (c *Clock) SetHHMM(day int, hhmm string) error {
	m, ok := schema.ParseMinutes(hhmm)
	if !ok {
		return fmt.Errorf("invalid time of day %q", hhmm)
	}
	c.SetAbsolute(day, m)
	return nil
}

func (c *Clock) publish(prev State) {
	if prev.Day != c.state.Day {
		c.log.Debug("day changed", "from", prev.Day, "to", c.state.Day)
		c.days.emit(DayChanged{Previous: prev.Day, Current: c.state.Day})
	}
	c.times.emit(TimeChanged{Previous: prev, Current: c.state})
}

func FormatMinutes(m int) string {
	m = clampMinute(m)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func clampDay(day int) int {
	if day < 1 {
		return 1
	}
	return day
}

func clampMinute(m int) int {
	if m < 0 {
		return 0
	}
	if m > LastMinute {
		return LastMinute
	}
	return m
}
