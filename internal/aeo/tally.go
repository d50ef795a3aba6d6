package aeo

import "sort"

// tally counts keys and remembers first-seen order, so ties sort stably.
type tally struct {
	keys   []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: map[string]int{}}
}

func (t *tally) add(key string, n int) {
	if _, ok := t.counts[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.counts[key] += n
}

func (t *tally) len() int { return len(t.keys) }

// sorted returns the keys by count descending, first-seen order on ties.
func (t *tally) sorted() []string {
	keys := append([]string(nil), t.keys...)
	sort.SliceStable(keys, func(i, j int) bool {
		return t.counts[keys[i]] > t.counts[keys[j]]
	})
	return keys
}
