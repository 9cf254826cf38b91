package clock

import (
	"log/slog"
	"sort"
	"strings"
)

type Trigger struct {
	ID      string `yaml:"id" json:"id"`
	Hour    int    `yaml:"hour" json:"hour"`
	Minute  int    `yaml:"minute" json:"minute"`
	OnlyDay int    `yaml:"only_day" json:"only_day"`
}

func (t Trigger) MinuteOfDay() int { return t.Hour*60 + t.Minute }

func (t Trigger) valid() bool {
	return strings.TrimSpace(t.ID) != "" && t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

type Fired struct {
	ID     string
	Day    int
	Minute int
}

// Evaluator fires each trigger at most once per day as the clock crosses
// its minute. A crossing is the half-open interval (from, to].
type Evaluator struct {
	triggers []Trigger
	fired    map[string]bool
	next     Subscription
	out      observers[Fired]
	log      *slog.Logger
}

func NewEvaluator(triggers []Trigger, log *slog.Logger) *Evaluator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	e := &Evaluator{fired: make(map[string]bool), log: log}
	for _, t := range triggers {
		t.ID = strings.TrimSpace(t.ID)
		if !t.valid() {
			log.Warn("trigger ignored", "trigger", t.ID, "hour", t.Hour, "minute", t.Minute)
			continue
		}
		e.triggers = append(e.triggers, t)
	}
	sort.SliceStable(e.triggers, func(i, j int) bool {
		return e.triggers[i].MinuteOfDay() < e.triggers[j].MinuteOfDay()
	})
	return e
}

func (e *Evaluator) Triggers() []Trigger {
	return append([]Trigger(nil), e.triggers...)
}

func (e *Evaluator) OnFired(fn func(Fired)) Subscription {
	e.next++
	e.out.add(e.next, fn)
	return e.next
}

func (e *Evaluator) Unsubscribe(id Subscription) bool {
	return e.out.remove(id)
}

// Attach wires the evaluator to a clock's time-changed notifications.
func (e *Evaluator) Attach(c *Clock) Subscription {
	return c.OnTimeChanged(e.Observe)
}

func (e *Evaluator) Observe(ev TimeChanged) {
	e.Evaluate(ev.Previous, ev.Current)
}

// Evaluate fires the triggers crossed moving from -> to. On a day change
// only the tail of the old day and the head of the new day are checked;
// days skipped in between never fire.
func (e *Evaluator) Evaluate(from, to State) []Fired {
	var fired []Fired
	if from.Day == to.Day {
		return e.segment(to.Day, clampMinute(from.Minute), clampMinute(to.Minute), fired)
	}
	fired = e.segment(from.Day, clampMinute(from.Minute), LastMinute, fired)
	e.Reset()
	return e.segment(to.Day, -1, clampMinute(to.Minute), fired)
}

func (e *Evaluator) segment(day, after, upTo int, fired []Fired) []Fired {
	if upTo <= after {
		return fired
	}
	for _, t := range e.triggers {
		if t.OnlyDay != 0 && t.OnlyDay != day {
			continue
		}
		m := t.MinuteOfDay()
		if m <= after || m > upTo || e.fired[t.ID] {
			continue
		}
		e.fired[t.ID] = true
		f := Fired{ID: t.ID, Day: day, Minute: m}
		e.log.Info("trigger fired", "trigger", t.ID, "day", day, "at", FormatMinutes(m))
		e.out.emit(f)
		fired = append(fired, f)
	}
	return fired
}

// Reset clears the fired-today set.
func (e *Evaluator) Reset() {
	clear(e.fired)
}

func (e *Evaluator) FiredToday(id string) bool {
	return e.fired[id]
}
