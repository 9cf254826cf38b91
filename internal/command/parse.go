// Package command turns typed session input into intents, tolerating
// aliases, prefixes and small typos.
package command

import (
	"fmt"
	"strings"
)

type Parser struct {
	registry *Registry
}

func New() *Parser {
	return &Parser{registry: DefaultRegistry()}
}

func (p *Parser) RegisterCommand(c CommandDef) {
	p.registry.RegisterCommand(c)
}

func (p *Parser) Commands() []CommandDef {
	return p.registry.Commands()
}

func (p *Parser) Parse(raw string) Intent {
	intent := Intent{
		Raw:        raw,
		Normalised: normaliseInput(raw),
		Kind:       Unknown,
		Confidence: 0,
	}
	if intent.Normalised == "" {
		intent.Clarify = &ClarifyQuestion{Prompt: "Enter a command. Try help."}
		return intent
	}
	if inferred := inferFreeTextIntent(intent.Raw, intent.Normalised); inferred != nil {
		return *inferred
	}

	tokens := tokenise(intent.Normalised)
	cmdMatch, alternates := p.registry.matchCommand(tokens)
	if cmdMatch.Canonical == "" || cmdMatch.Score < minCommandScore {
		intent.Clarify = &ClarifyQuestion{
			Prompt: "I couldn't map that to a command. Try help, status, next, advance, set, jump, place, who, dialogue, triggers, quit.",
		}
		return intent
	}

	if len(alternates) > 0 && cmdMatch.Score-alternates[0].Score < clarifyMargin && alternates[0].Score > clarifyFloor {
		intent.Clarify = &ClarifyQuestion{
			Prompt: "Did you mean:",
			Options: []Intent{
				{Raw: raw, Normalised: cmdMatch.Canonical, Kind: commandKind(cmdMatch.Canonical), Verb: cmdMatch.Canonical, Confidence: cmdMatch.Score},
				{Raw: raw, Normalised: alternates[0].Canonical, Kind: commandKind(alternates[0].Canonical), Verb: alternates[0].Canonical, Confidence: alternates[0].Score},
			},
		}
		return intent
	}

	intent.Verb = cmdMatch.Canonical
	intent.Kind = commandKind(intent.Verb)
	intent.Confidence = clampScore(cmdMatch.Score)

	argsTokens := tokens
	if cmdMatch.Consumed > 0 && len(tokens) >= cmdMatch.Consumed {
		argsTokens = tokens[cmdMatch.Consumed:]
	}
	def, _ := p.registry.command(intent.Verb)
	if def.Quantity {
		argsTokens, intent.Quantity = splitQuantity(argsTokens)
	}

	score := 0.9
	if len(argsTokens) > 0 {
		intent.Args = append([]string(nil), argsTokens...)
		score -= 0.02 * float64(len(argsTokens))
	}
	intent.Confidence = clampScore((intent.Confidence * 0.75) + (clampScore(score) * 0.25))

	if len(intent.Args) < def.MinArgs {
		intent.Clarify = &ClarifyQuestion{Prompt: fmt.Sprintf("usage: %s", def.Usage)}
		intent.Confidence = 0.42
		return intent
	}
	if len(intent.Args) > def.MaxArgs {
		intent.Args = append([]string(nil), intent.Args[:def.MaxArgs]...)
		if len(intent.Args) == 0 {
			intent.Args = nil
		}
		intent.Confidence = clampScore(intent.Confidence - 0.05)
	}

	if intent.Confidence < 0.52 && intent.Clarify == nil {
		intent.Clarify = &ClarifyQuestion{Prompt: "I have low confidence in that parse. Please rephrase or pick a clearer command."}
	}
	return intent
}

func commandKind(verb string) IntentKind {
	switch verb {
	case "help":
		return Help
	case "status", "who", "triggers", "dialogue":
		return Query
	default:
		return Command
	}
}

func splitQuantity(tokens []string) ([]string, *Quantity) {
	if len(tokens) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(tokens))
	var q *Quantity
	for _, token := range tokens {
		if q == nil {
			if candidate := parseQuantityToken(token); candidate != nil {
				q = candidate
				continue
			}
		}
		out = append(out, token)
	}
	return out, q
}

func inferFreeTextIntent(raw, normalised string) *Intent {
	makeIntent := func(kind IntentKind, verb string, confidence float64) *Intent {
		return &Intent{
			Raw:        raw,
			Normalised: normalised,
			Kind:       kind,
			Verb:       verb,
			Confidence: clampScore(confidence),
		}
	}
	n := normalised
	if containsAnyPhrase(n, "what time", "what day", "where are we", "whats the time") {
		return makeIntent(Query, "status", 0.9)
	}
	if containsAnyPhrase(n, "who is where", "where is everyone", "where is everybody") {
		return makeIntent(Query, "who", 0.88)
	}
	if containsAnyPhrase(n, "what happens next", "move on", "carry on") {
		return makeIntent(Command, "next", 0.84)
	}
	return nil
}

func containsAnyPhrase(s string, phrases ...string) bool {
	padded := " " + s + " "
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
