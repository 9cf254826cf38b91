package command

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match scores. A typed verb that spells a command in full outranks an
// alias; a prefix of a one-word verb outranks any misspelling.
const (
	scoreName      = 1.0
	scoreAlias     = 0.97
	scorePrefix    = 0.9
	scoreFuzzy     = 0.72
	scoreFuzzyEdit = 0.08
	scoreFuzzyNick = 0.03

	// Parse rejects anything below minCommandScore and asks which verb was
	// meant when the runner-up is above clarifyFloor and within
	// clarifyMargin of the best match.
	minCommandScore = 0.5
	clarifyFloor    = 0.65
	clarifyMargin   = 0.05

	maxAlternates = 4
)

type matchKind string

const (
	matchName   matchKind = "name"
	matchAlias  matchKind = "alias"
	matchPrefix matchKind = "prefix"
	matchFuzzy  matchKind = "fuzzy"
)

// commandPhrase is one spelling of a session verb: its canonical name or
// one of its aliases, split into words.
type commandPhrase struct {
	canonical string
	spelling  string
	words     []string
}

// Registry holds the session verbs, keyed by canonical name.
type Registry struct {
	commands map[string]CommandDef
	order    []string
	phrases  []commandPhrase
}

func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]CommandDef),
	}
}

// RegisterCommand adds c, replacing an earlier definition with the same
// canonical name but keeping its place in the listing.
func (r *Registry) RegisterCommand(c CommandDef) {
	c.Canonical = normaliseInput(c.Canonical)
	if c.Canonical == "" {
		return
	}
	if _, exists := r.commands[c.Canonical]; !exists {
		r.order = append(r.order, c.Canonical)
	}
	r.commands[c.Canonical] = c

	for _, spelling := range append([]string{c.Canonical}, c.Aliases...) {
		n := normaliseInput(spelling)
		if n == "" {
			continue
		}
		r.phrases = append(r.phrases, commandPhrase{
			canonical: c.Canonical,
			spelling:  n,
			words:     tokenise(n),
		})
	}
}

// Commands lists definitions in registration order.
func (r *Registry) Commands() []CommandDef {
	out := make([]CommandDef, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

func (r *Registry) command(canonical string) (CommandDef, bool) {
	cmd, ok := r.commands[normaliseInput(canonical)]
	return cmd, ok
}

type commandCandidate struct {
	Canonical string
	Spelling  string
	Consumed  int
	Score     float64
	Kind      matchKind
}

// match scores the leading input words against this spelling. Consumed
// is how many input words the verb takes; the rest are arguments.
func (p commandPhrase) match(tokens []string) (commandCandidate, bool) {
	if len(p.words) == 0 || len(tokens) == 0 {
		return commandCandidate{}, false
	}
	cand := commandCandidate{Canonical: p.canonical, Spelling: p.spelling}
	nick := p.spelling != p.canonical

	consumed := min(len(tokens), len(p.words))
	typed := strings.Join(tokens[:consumed], " ")
	switch {
	case consumed == len(p.words) && typed == p.spelling:
		cand.Consumed, cand.Score, cand.Kind = consumed, scoreName, matchName
		if nick {
			cand.Score, cand.Kind = scoreAlias, matchAlias
		}
		return cand, true
	case len(p.words) == 1 && len(tokens[0]) >= 2 && strings.HasPrefix(p.spelling, tokens[0]):
		cand.Consumed, cand.Score, cand.Kind = 1, scorePrefix, matchPrefix
		return cand, true
	}

	if len(typed) < 3 {
		return commandCandidate{}, false
	}
	dist := levenshtein.ComputeDistance(typed, p.spelling)
	if dist > editBudget(len(p.spelling)) {
		return commandCandidate{}, false
	}
	cand.Consumed = consumed
	cand.Score = scoreFuzzy - scoreFuzzyEdit*float64(dist)
	if nick {
		cand.Score += scoreFuzzyNick
	}
	cand.Kind = matchFuzzy
	return cand, true
}

// matchCommand returns the best verb for tokens and up to maxAlternates
// runners-up, one per command.
func (r *Registry) matchCommand(tokens []string) (commandCandidate, []commandCandidate) {
	var cands []commandCandidate
	for _, phrase := range r.phrases {
		if c, ok := phrase.match(tokens); ok {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		return commandCandidate{}, nil
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		switch {
		case a.Score != b.Score:
			return a.Score > b.Score
		case a.Consumed != b.Consumed:
			return a.Consumed > b.Consumed
		default:
			return a.Canonical < b.Canonical
		}
	})

	best := cands[0]
	var alts []commandCandidate
	seen := map[string]bool{best.Canonical: true}
	for _, c := range cands[1:] {
		if seen[c.Canonical] {
			continue
		}
		seen[c.Canonical] = true
		alts = append(alts, c)
		if len(alts) == maxAlternates {
			break
		}
	}
	return best, alts
}

// editBudget is how many typos a verb of the given length tolerates.
func editBudget(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func DefaultRegistry() *Registry {
	r := NewRegistry()
	commands := []CommandDef{
		{Canonical: "help", Aliases: []string{"h", "commands", "?"}, Usage: "help", Summary: "list commands"},
		{Canonical: "status", Aliases: []string{"st", "time", "where", "clock"}, Usage: "status", Summary: "show clock, schedule cursor and current block"},
		{Canonical: "next", Aliases: []string{"n", "step"}, Usage: "next", Summary: "enter the next schedule block"},
		{Canonical: "advance", Aliases: []string{"wait", "pass", "skip", "tick"}, Quantity: true, Usage: "advance [15m|2h|1d]", Summary: "move the clock forward"},
		{Canonical: "set", Aliases: []string{"settime", "at"}, MinArgs: 2, MaxArgs: 2, Usage: "set <day> <HH:MM>", Summary: "jump the clock to an absolute time"},
		{Canonical: "jump", Aliases: []string{"goto", "go to", "day"}, MinArgs: 1, MaxArgs: 1, Usage: "jump <day>", Summary: "restart the schedule at a day"},
		{Canonical: "place", Aliases: []string{"placement", "apply"}, MinArgs: 1, MaxArgs: 1, Usage: "place <location id>", Summary: "apply a placement set"},
		{Canonical: "who", Aliases: []string{"npcs", "positions"}, MaxArgs: 1, Usage: "who [npc]", Summary: "show npc positions"},
		{Canonical: "dialogue", Aliases: []string{"talk", "say", "play"}, MinArgs: 1, MaxArgs: 1, Usage: "dialogue <id>", Summary: "print a dialogue sequence"},
		{Canonical: "triggers", Aliases: []string{"alarms", "fired"}, Usage: "triggers", Summary: "list time triggers"},
		{Canonical: "quit", Aliases: []string{"q", "exit", "bye"}, Usage: "quit", Summary: "leave the session"},
	}
	for _, cmd := range commands {
		r.RegisterCommand(cmd)
	}
	return r
}
