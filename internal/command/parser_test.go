package command

import (
	"math"
	"testing"
)

func TestNormalisationTable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  ADVANSE  ", want: "advanse"},
		{in: "set   2 08:30!!", want: "set 2 08:30"},
		{in: "jump-to_day 3", want: "jump to day 3"},
		{in: "set 1 9：05", want: "set 1 9:05"},
	}
	for _, tc := range tests {
		got := normaliseInput(tc.in)
		if got != tc.want {
			t.Fatalf("normaliseInput(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestQuantityTokens(t *testing.T) {
	tests := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{in: "15", minutes: 15, ok: true},
		{in: "15m", minutes: 15, ok: true},
		{in: "30min", minutes: 30, ok: true},
		{in: "2h", minutes: 120, ok: true},
		{in: "3hours", minutes: 180, ok: true},
		{in: "1d", minutes: 1440, ok: true},
		{in: "08:30", ok: false},
		{in: "soon", ok: false},
		{in: "-5", ok: false},
	}
	for _, tc := range tests {
		q := parseQuantityToken(tc.in)
		if (q != nil) != tc.ok {
			t.Fatalf("parseQuantityToken(%q)=%+v want ok=%v", tc.in, q, tc.ok)
		}
		if q != nil && q.Minutes() != tc.minutes {
			t.Fatalf("parseQuantityToken(%q).Minutes()=%d want=%d", tc.in, q.Minutes(), tc.minutes)
		}
	}
}

func TestAliasWaitMapsToAdvance(t *testing.T) {
	p := New()
	intent := p.Parse("wait 2h")
	if intent.Verb != "advance" {
		t.Fatalf("expected advance verb, got %q", intent.Verb)
	}
	if intent.Clarify != nil {
		t.Fatalf("did not expect clarify: %+v", intent.Clarify)
	}
	if intent.Quantity == nil || intent.Quantity.Minutes() != 120 {
		t.Fatalf("expected 120 minutes, got %+v", intent.Quantity)
	}
}

func TestTypoAdvnceMapsToAdvance(t *testing.T) {
	p := New()
	intent := p.Parse("advnce")
	if intent.Verb != "advance" {
		t.Fatalf("expected advance verb, got %q", intent.Verb)
	}
	if intent.Confidence < 0.6 {
		t.Fatalf("expected decent confidence for typo correction, got %.2f", intent.Confidence)
	}
}

func TestSetKeepsTimeArgument(t *testing.T) {
	p := New()
	intent := p.Parse("set 2 08:30")
	if intent.Verb != "set" || intent.Clarify != nil {
		t.Fatalf("unexpected intent: %+v", intent)
	}
	if intent.Quantity != nil {
		t.Fatalf("set must not consume a quantity, got %+v", intent.Quantity)
	}
	if len(intent.Args) != 2 || intent.Args[0] != "2" || intent.Args[1] != "08:30" {
		t.Fatalf("unexpected args: %+v", intent.Args)
	}
}

func TestMissingArgsReturnsUsage(t *testing.T) {
	p := New()
	intent := p.Parse("dialogue")
	if intent.Clarify == nil {
		t.Fatalf("expected clarify for dialogue without id")
	}
	if intent.Clarify.Prompt != "usage: dialogue <id>" {
		t.Fatalf("unexpected prompt %q", intent.Clarify.Prompt)
	}
}

func TestAmbiguityReturnsClarify(t *testing.T) {
	p := New()
	intent := p.Parse("pl")
	if intent.Clarify == nil {
		t.Fatalf("expected clarify for ambiguous prefix")
	}
	if len(intent.Clarify.Options) < 2 {
		t.Fatalf("expected at least 2 clarify options, got %d", len(intent.Clarify.Options))
	}
}

func TestFreeTextTimeInference(t *testing.T) {
	p := New()
	intent := p.Parse("what time is it?")
	if intent.Verb != "status" {
		t.Fatalf("expected status inference, got %q", intent.Verb)
	}
}

func TestUnknownInput(t *testing.T) {
	p := New()
	intent := p.Parse("xyzzy")
	if intent.Kind != Unknown || intent.Clarify == nil {
		t.Fatalf("expected unknown with clarify, got %+v", intent)
	}
}

func TestCommandsInRegistrationOrder(t *testing.T) {
	cmds := New().Commands()
	if len(cmds) == 0 || cmds[0].Canonical != "help" || cmds[len(cmds)-1].Canonical != "quit" {
		t.Fatalf("unexpected command order: %+v", cmds)
	}
}

func TestMatchCommandKinds(t *testing.T) {
	tests := []struct {
		in       string
		verb     string
		kind     matchKind
		consumed int
		score    float64
	}{
		{in: "jump 3", verb: "jump", kind: matchName, consumed: 1, score: scoreName},
		{in: "go to 3", verb: "jump", kind: matchAlias, consumed: 2, score: scoreAlias},
		{in: "adv 2h", verb: "advance", kind: matchPrefix, consumed: 1, score: scorePrefix},
		{in: "advnce", verb: "advance", kind: matchFuzzy, consumed: 1, score: scoreFuzzy - scoreFuzzyEdit},
	}
	r := DefaultRegistry()
	for _, tc := range tests {
		best, _ := r.matchCommand(tokenise(normaliseInput(tc.in)))
		if best.Canonical != tc.verb || best.Kind != tc.kind || best.Consumed != tc.consumed {
			t.Fatalf("matchCommand(%q)=%+v want verb=%q kind=%q consumed=%d", tc.in, best, tc.verb, tc.kind, tc.consumed)
		}
		if math.Abs(best.Score-tc.score) > 1e-9 {
			t.Fatalf("matchCommand(%q).Score=%v want=%v", tc.in, best.Score, tc.score)
		}
	}
}
