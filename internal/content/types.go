// Package content holds the normalized daily-system schema produced by the
// importer and the read-only Index the runtime looks it up through.
package content

type Block struct {
	Time            string `json:"time"`
	Name            string `json:"name,omitempty"`
	LocationID      int    `json:"location_id,omitempty"`
	StartDialogueID int    `json:"start_dialogue_id,omitempty"`
	EndDialogueID   int    `json:"end_dialogue_id,omitempty"`
}

type Day struct {
	ID        int     `json:"id"`
	DayNumber int     `json:"day_number"`
	Blocks    []Block `json:"blocks"`
}

type Placement struct {
	NPCID    string `json:"npc_id"`
	AnchorID string `json:"anchor_id"`
	EventID  int    `json:"event_id,omitempty"`
}

type PlacementSet struct {
	ID         int         `json:"id"`
	Note       string      `json:"note,omitempty"`
	Placements []Placement `json:"placements"`
}

type DialogueLine struct {
	DialogueID int    `json:"dialogue_id"`
	Time       string `json:"time,omitempty"`
	Speaker    string `json:"speaker,omitempty"`
	Text       string `json:"text"`
}

// Database is the full import result, in source row order.
type Database struct {
	Days          []Day          `json:"days"`
	PlacementSets []PlacementSet `json:"placement_sets"`
	Dialogue      []DialogueLine `json:"dialogue"`
}
