package content

// Index is built once from a Database and only read afterwards. Lookups
// report absence with ok=false; a missing key is an expected outcome.
type Index struct {
	days     map[int]Day
	sets     map[int]PlacementSet
	dialogue map[int][]DialogueLine
	maxDay   int
}

// Build indexes days by day number (last duplicate wins), placement sets by
// id and dialogue lines by id in source order.
func Build(db Database) *Index {
	idx := &Index{
		days:     make(map[int]Day, len(db.Days)),
		sets:     make(map[int]PlacementSet, len(db.PlacementSets)),
		dialogue: make(map[int][]DialogueLine),
	}
	for _, d := range db.Days {
		idx.days[d.DayNumber] = d
		if d.DayNumber > idx.maxDay {
			idx.maxDay = d.DayNumber
		}
	}
	for _, s := range db.PlacementSets {
		idx.sets[s.ID] = s
	}
	for _, line := range db.Dialogue {
		idx.dialogue[line.DialogueID] = append(idx.dialogue[line.DialogueID], line)
	}
	return idx
}

func (x *Index) Day(dayNumber int) (Day, bool) {
	if x == nil {
		return Day{}, false
	}
	d, ok := x.days[dayNumber]
	return d, ok
}

func (x *Index) PlacementSet(id int) (PlacementSet, bool) {
	if x == nil {
		return PlacementSet{}, false
	}
	s, ok := x.sets[id]
	return s, ok
}

// Dialogue returns a copy so callers cannot reorder the indexed sequence.
func (x *Index) Dialogue(id int) ([]DialogueLine, bool) {
	if x == nil {
		return nil, false
	}
	lines, ok := x.dialogue[id]
	if !ok {
		return nil, false
	}
	return append([]DialogueLine(nil), lines...), true
}

func (x *Index) LastDay() int {
	if x == nil {
		return 0
	}
	return x.maxDay
}

type Stats struct {
	Days          int
	PlacementSets int
	DialogueIDs   int
}

func (x *Index) Stats() Stats {
	if x == nil {
		return Stats{}
	}
	return Stats{Days: len(x.days), PlacementSets: len(x.sets), DialogueIDs: len(x.dialogue)}
}
