package command

type IntentKind int

const (
	Command IntentKind = iota
	Query
	Help
	Unknown
)

type Quantity struct {
	Raw  string
	N    int
	Unit string
}

// Minutes converts the quantity to game minutes. A bare count is read as
// minutes.
func (q *Quantity) Minutes() int {
	if q == nil {
		return 0
	}
	switch q.Unit {
	case "hours":
		return q.N * 60
	case "days":
		return q.N * 24 * 60
	default:
		return q.N
	}
}

type Intent struct {
	Raw        string
	Normalised string
	Kind       IntentKind
	Verb       string
	Args       []string
	Quantity   *Quantity
	Confidence float64
	Clarify    *ClarifyQuestion
}

type ClarifyQuestion struct {
	Prompt  string
	Options []Intent
}

type CommandDef struct {
	Canonical string
	Aliases   []string
	MinArgs   int
	MaxArgs   int
	// Quantity marks verbs that take a duration token such as 15m or 2h.
	Quantity bool
	Usage    string
	Summary  string
}
