// Package session runs an interactive simulation over an imported
// database: it owns the clock, trigger evaluator, schedule controller and
// placement resolver, and maps parsed commands onto them.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/appengine-ltd/dailysim/internal/clock"
	"github.com/appengine-ltd/dailysim/internal/command"
	"github.com/appengine-ltd/dailysim/internal/content"
	"github.com/appengine-ltd/dailysim/internal/placement"
	"github.com/appengine-ltd/dailysim/internal/schedule"
	"github.com/appengine-ltd/dailysim/internal/schema"
	"github.com/appengine-ltd/dailysim/internal/settings"
)

var (
	ErrQuit       = errors.New("quit")
	ErrBadArgs    = errors.New("bad arguments")
	ErrNeedsInput = errors.New("clarification needed")
)

type Options struct {
	StartDay    int
	StartTime   string
	AdvanceStep int
	Triggers    []clock.Trigger
	Scene       settings.Scene
	// Plain disables colored output.
	Plain  bool
	Logger *slog.Logger
}

// OptionsFrom copies the session related fields of cfg.
func OptionsFrom(cfg settings.Settings, scene settings.Scene, log *slog.Logger) Options {
	return Options{
		StartDay:    cfg.Start.Day,
		StartTime:   cfg.Start.Time,
		AdvanceStep: cfg.AdvanceStep,
		Triggers:    cfg.Triggers,
		Scene:       scene,
		Logger:      log,
	}
}

type palette struct {
	event *color.Color
	block *color.Color
	say   *color.Color
	warn  *color.Color
	dim   *color.Color
}

func newPalette(plain bool) palette {
	p := palette{
		event: color.New(color.FgMagenta, color.Bold),
		block: color.New(color.FgCyan),
		say:   color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		dim:   color.New(color.Faint),
	}
	if plain {
		for _, c := range []*color.Color{p.event, p.block, p.say, p.warn, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

type Session struct {
	index      *content.Index
	clock      *clock.Clock
	triggers   *clock.Evaluator
	controller *schedule.Controller
	resolver   *placement.Resolver
	npcs       *placement.Registry
	anchors    *placement.Registry
	parser     *command.Parser
	step       int
	color      palette
	log        *slog.Logger

	pending []string
}

// New builds a session positioned at the configured start. Duplicate scene
// ids are logged and dropped; they never fail construction.
func New(db content.Database, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.StartDay < 1 {
		opts.StartDay = 1
	}
	if opts.AdvanceStep <= 0 {
		opts.AdvanceStep = settings.DefaultAdvanceStep
	}
	startMinute := 0
	if strings.TrimSpace(opts.StartTime) != "" {
		m, ok := schema.ParseMinutes(schema.NormalizeTime(opts.StartTime))
		if !ok {
			return nil, fmt.Errorf("start time %q: %w", opts.StartTime, ErrBadArgs)
		}
		startMinute = m
	}

	s := &Session{
		index:  content.Build(db),
		parser: command.New(),
		step:   opts.AdvanceStep,
		color:  newPalette(opts.Plain),
		log:    log,
	}

	s.npcs = placement.NewRegistry("npc", log)
	s.anchors = placement.NewRegistry("anchor", log)
	for _, e := range opts.Scene.NPCs {
		_ = s.npcs.Register(e.Handle())
	}
	for _, e := range opts.Scene.Anchors {
		_ = s.anchors.Register(e.Handle())
	}

	s.clock = clock.New(opts.StartDay, startMinute, log)
	s.triggers = clock.NewEvaluator(opts.Triggers, log)
	s.triggers.Attach(s.clock)
	s.resolver = placement.NewResolver(s.index, s.npcs, s.anchors, log)
	s.controller = schedule.New(s.index, s.clock, s.resolver, opts.StartDay, log)

	s.clock.OnDayChanged(func(ev clock.DayChanged) {
		s.emit(s.color.event.Sprintf("-- day %d begins --", ev.Current))
	})
	s.triggers.OnFired(func(f clock.Fired) {
		s.emit(s.color.event.Sprintf("trigger %s fired at day %d %s", f.ID, f.Day, clock.FormatMinutes(f.Minute)))
	})
	s.controller.OnEnter(s.enterBlock)
	return s, nil
}

func (s *Session) Clock() *clock.Clock              { return s.clock }
func (s *Session) Controller() *schedule.Controller { return s.controller }
func (s *Session) Parser() *command.Parser          { return s.parser }

func (s *Session) emit(line string) {
	s.pending = append(s.pending, line)
}

func (s *Session) drain() []string {
	out := s.pending
	s.pending = nil
	return out
}

func (s *Session) enterBlock(ev schedule.Entered) {
	b := ev.Block
	line := fmt.Sprintf("[day %d] enter %s", ev.Day, b.Time)
	if b.Name != "" {
		line += " (" + b.Name + ")"
	}
	if b.LocationID != 0 {
		line += fmt.Sprintf(" loc=%d", b.LocationID)
	}
	if b.StartDialogueID != 0 {
		line += fmt.Sprintf(" start=%d", b.StartDialogueID)
	}
	s.emit(s.color.block.Sprint(line))
	if b.StartDialogueID != 0 {
		for _, l := range s.dialogueLines(b.StartDialogueID) {
			s.emit(l)
		}
	}
}

func (s *Session) dialogueLines(id int) []string {
	lines, ok := s.index.Dialogue(id)
	if !ok {
		s.log.Warn("dialogue not found", "dialogue_id", id)
		return []string{s.color.warn.Sprintf("dialogue %d not found", id)}
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		var b strings.Builder
		if l.Time != "" {
			b.WriteString(s.color.dim.Sprint(l.Time))
			b.WriteString(" ")
		}
		if l.Speaker != "" {
			b.WriteString(s.color.say.Sprint(l.Speaker))
			b.WriteString(": ")
		}
		b.WriteString(l.Text)
		out = append(out, "  "+b.String())
	}
	return out
}

// Execute runs one parsed intent and returns everything it printed,
// including trigger and block events raised along the way.
func (s *Session) Execute(intent command.Intent) (string, error) {
	s.pending = nil
	if intent.Clarify != nil {
		return clarifyText(intent.Clarify), ErrNeedsInput
	}

	var err error
	switch intent.Verb {
	case "help":
		s.emit(s.help())
	case "status":
		s.emit(s.status())
	case "next":
		if _, err = s.controller.Advance(); errors.Is(err, schedule.ErrNotAvailable) {
			s.emit(s.color.warn.Sprintf("no schedule block available after day %d", s.controller.Cursor().Day))
		}
	case "advance":
		minutes := s.step
		if intent.Quantity != nil {
			minutes = intent.Quantity.Minutes()
		}
		s.clock.AdvanceMinutes(minutes)
		s.emit(fmt.Sprintf("advanced %d min, now %s", minutes, s.clock.State()))
	case "set":
		err = s.setTime(intent.Args)
	case "jump":
		err = s.jump(intent.Args)
	case "place":
		err = s.place(intent.Args)
	case "who":
		s.who(intent.Args)
	case "dialogue":
		var id int
		if id, err = atoiArg(intent.Args, 0, "dialogue id"); err == nil {
			for _, l := range s.dialogueLines(id) {
				s.emit(l)
			}
		}
	case "triggers":
		s.listTriggers()
	case "quit":
		s.emit("bye")
		err = ErrQuit
	default:
		err = fmt.Errorf("unknown command %q", intent.Raw)
	}
	return strings.Join(s.drain(), "\n"), err
}

func (s *Session) setTime(args []string) error {
	day, err := atoiArg(args, 0, "day")
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("time: %w", ErrBadArgs)
	}
	hhmm := schema.NormalizeTime(args[1])
	if hhmm == "" {
		return fmt.Errorf("time %q: %w", args[1], ErrBadArgs)
	}
	if err := s.clock.SetHHMM(day, hhmm); err != nil {
		return err
	}
	s.emit(fmt.Sprintf("clock set to %s", s.clock.State()))
	return nil
}

func (s *Session) jump(args []string) error {
	day, err := atoiArg(args, 0, "day")
	if err != nil {
		return err
	}
	if day < 1 {
		day = 1
	}
	if _, ok := s.index.Day(day); !ok {
		s.emit(s.color.warn.Sprintf("day %d has no schedule", day))
	}
	s.controller.Reset(day)
	s.clock.SetAbsolute(day, 0)
	s.emit(fmt.Sprintf("schedule reset to day %d", day))
	return nil
}

func (s *Session) place(args []string) error {
	id, err := atoiArg(args, 0, "location id")
	if err != nil {
		return err
	}
	res, err := s.resolver.Apply(id)
	if err != nil {
		s.emit(s.color.warn.Sprintf("placement %d: %v", id, err))
		return err
	}
	s.emit(fmt.Sprintf("placement %d: moved %d, skipped %d", id, len(res.Moved), len(res.Skipped)))
	for _, sk := range res.Skipped {
		s.emit(s.color.warn.Sprintf("  skipped %s -> %s: %v", sk.Placement.NPCID, sk.Placement.AnchorID, sk.Reason))
	}
	return nil
}

func (s *Session) who(args []string) {
	ids := s.npcs.IDs()
	if len(args) > 0 {
		ids = filterFold(ids, args[0])
	}
	if len(ids) == 0 {
		s.emit("no npcs")
		return
	}
	for _, id := range ids {
		e, _ := s.npcs.Get(id)
		t := e.Transform()
		s.emit(fmt.Sprintf("%s at (%g, %g, %g) yaw %g", id, t.Position.X, t.Position.Y, t.Position.Z, t.Rotation.Y))
	}
}

func (s *Session) listTriggers() {
	ts := s.triggers.Triggers()
	if len(ts) == 0 {
		s.emit("no triggers")
		return
	}
	for _, t := range ts {
		line := fmt.Sprintf("%s %02d:%02d", t.ID, t.Hour, t.Minute)
		if t.OnlyDay > 0 {
			line += fmt.Sprintf(" (day %d only)", t.OnlyDay)
		}
		if s.triggers.FiredToday(t.ID) {
			line += " fired"
		}
		s.emit(line)
	}
}

func (s *Session) status() string {
	cur := s.controller.Cursor()
	line := fmt.Sprintf("%s | schedule day %d block %d", s.clock.State(), cur.Day, cur.BlockIndex)
	if ev, ok := s.controller.Current(); ok {
		line += fmt.Sprintf(" | %s %s", ev.Block.Time, ev.Block.Name)
	}
	return line
}

func (s *Session) help() string {
	var b strings.Builder
	b.WriteString("commands:")
	for _, c := range s.parser.Commands() {
		b.WriteString(fmt.Sprintf("\n  %-24s %s", c.Usage, c.Summary))
	}
	return b.String()
}

// Run reads commands line by line until quit, EOF or ctx is done.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, readErr := readLines(ctx, in)
	fmt.Fprintln(out, s.status())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return <-readErr
			}
			line = l
		}
		text, err := s.Execute(s.parser.Parse(line))
		if text != "" {
			fmt.Fprintln(out, text)
		}
		switch {
		case errors.Is(err, ErrQuit):
			return nil
		case err != nil && !errors.Is(err, ErrNeedsInput) && !errors.Is(err, schedule.ErrNotAvailable):
			fmt.Fprintln(out, s.color.warn.Sprintf("error: %v", err))
		}
	}
}

// readLines scans in on its own goroutine so a blocked read never holds up
// cancellation. lines closes at end of input or once ctx is done; readErr
// then yields the scanner error, nil included.
func readLines(ctx context.Context, in io.Reader) (lines <-chan string, readErr <-chan error) {
	ch := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- sc.Err()
	}()
	return ch, errc
}

func clarifyText(q *command.ClarifyQuestion) string {
	var b strings.Builder
	b.WriteString(q.Prompt)
	for _, o := range q.Options {
		b.WriteString("\n  - ")
		b.WriteString(o.Verb)
		if len(o.Args) > 0 {
			b.WriteString(" ")
			b.WriteString(strings.Join(o.Args, " "))
		}
	}
	return b.String()
}

func atoiArg(args []string, i int, what string) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing %s: %w", what, ErrBadArgs)
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[i]))
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", what, args[i], ErrBadArgs)
	}
	return n, nil
}

func filterFold(ids []string, needle string) []string {
	needle = strings.ToLower(strings.TrimSpace(needle))
	var out []string
	for _, id := range ids {
		if strings.Contains(strings.ToLower(id), needle) {
			out = append(out, id)
		}
	}
	return out
}
