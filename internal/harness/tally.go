package harness

import "fmt"

// Tally counts passed and attempted tests. Counts only ever grow.
type Tally struct {
	Passed    int `json:"passed"`
	Attempted int `json:"attempted"`
}

// Record counts one attempted test.
func (t *Tally) Record(pass bool) {
	t.Attempted++
	if pass {
		t.Passed++
	}
}

// Failed returns the number of attempted tests that did not pass.
func (t Tally) Failed() int {
	return t.Attempted - t.Passed
}

// Add returns the sum of two tallies.
func (t Tally) Add(o Tally) Tally {
	return Tally{Passed: t.Passed + o.Passed, Attempted: t.Attempted + o.Attempted}
}

func (t Tally) String() string {
	return fmt.Sprintf("%d/%d", t.Passed, t.Attempted)
}

// CategoryTally pairs a category with its tally.
type CategoryTally struct {
	Category Category `json:"category"`
	Tally    Tally    `json:"tally"`
}

// Tallies maps categories to their tallies in insertion order.
// Totals are always folded from the entries, never stored.
type Tallies struct {
	entries []CategoryTally
	index   map[string]int
}

// NewTallies creates an empty collection.
func NewTallies() *Tallies {
	return &Tallies{index: make(map[string]int)}
}

// Set stores the tally of a category. A category seen for the first time
// is appended; a known one keeps its position.
func (t *Tallies) Set(c Category, tally Tally) {
	if i, ok := t.index[c.Name]; ok {
		t.entries[i] = CategoryTally{Category: c, Tally: tally}
		return
	}
	t.index[c.Name] = len(t.entries)
	t.entries = append(t.entries, CategoryTally{Category: c, Tally: tally})
}

// Get returns the tally of a category and whether it is present.
func (t *Tallies) Get(name string) (Tally, bool) {
	i, ok := t.index[name]
	if !ok {
		return Tally{}, false
	}
	return t.entries[i].Tally, true
}

// Entries returns a copy of the entries in insertion order.
func (t *Tallies) Entries() []CategoryTally {
	out := make([]CategoryTally, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of categories.
func (t *Tallies) Len() int {
	return len(t.entries)
}

// Totals sums every category tally.
func (t *Tallies) Totals() Tally {
	var total Tally
	for _, e := range t.entries {
		total = total.Add(e.Tally)
	}
	return total
}
