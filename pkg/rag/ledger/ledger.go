// Package ledger attributes retrieved fragments to conversation turns.
package ledger

import (
	"study-assistant-be/pkg/rag"
)

// FileGroup is the set of fragments cited from one source file, in insertion order.
type FileGroup struct {
	Filename  string         `json:"filename"`
	Fragments []rag.Fragment `json:"fragments"`
}

// Ledger keeps two mappings for one conversation: the fragments each turn used, and the
// de-duplicated union of every fragment seen so far. Only Attribute mutates the union.
// A Ledger is not safe for concurrent use; the owning conversation serializes access.
type Ledger struct {
	prefixLen int

	union map[rag.FragmentKey]rag.Fragment
	order []rag.FragmentKey
	turns map[int][]rag.FragmentKey
}

// New creates an empty ledger keyed with the default content prefix length.
func New() *Ledger {
	return NewWithPrefix(rag.FragmentKeyPrefixLen)
}

// NewWithPrefix creates an empty ledger that keys fragments on the first prefixLen runes.
func NewWithPrefix(prefixLen int) *Ledger {
	if prefixLen <= 0 {
		prefixLen = rag.FragmentKeyPrefixLen
	}
	l := &Ledger{prefixLen: prefixLen}
	l.Reset()
	return l
}

// Attribute records the fragments used to answer turn. A key already in the union keeps its
// first-seen fragment, but is still recorded for the turn.
func (l *Ledger) Attribute(turn int, fragments []rag.Fragment) {
	keys := make([]rag.FragmentKey, 0, len(fragments))
	seen := make(map[rag.FragmentKey]struct{}, len(fragments))

	for _, f := range fragments {
		key := rag.KeyWithPrefix(f, l.prefixLen)
		if _, ok := l.union[key]; !ok {
			l.union[key] = f
			l.order = append(l.order, key)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	l.turns[turn] = keys
}

// FragmentsForTurn returns the fragments attributed to turn, or an empty slice.
func (l *Ledger) FragmentsForTurn(turn int) []rag.Fragment {
	keys := l.turns[turn]
	out := make([]rag.Fragment, 0, len(keys))
	for _, key := range keys {
		out = append(out, l.union[key])
	}
	return out
}

// TurnKeys returns the deduplication keys recorded for turn.
func (l *Ledger) TurnKeys(turn int) []rag.FragmentKey {
	return append([]rag.FragmentKey(nil), l.turns[turn]...)
}

// TurnGroupedByFile groups one turn's fragments by source file.
func (l *Ledger) TurnGroupedByFile(turn int) []FileGroup {
	return GroupByFile(l.FragmentsForTurn(turn))
}

// GroupedByFile groups every fragment attributed so far by source file.
func (l *Ledger) GroupedByFile() []FileGroup {
	all := make([]rag.Fragment, 0, len(l.order))
	for _, key := range l.order {
		all = append(all, l.union[key])
	}
	return GroupByFile(all)
}

// Contains reports whether key is part of the conversation-lifetime union.
func (l *Ledger) Contains(key rag.FragmentKey) bool {
	_, ok := l.union[key]
	return ok
}

// Len is the number of distinct fragments referenced so far.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Reset forgets every attribution.
func (l *Ledger) Reset() {
	l.union = make(map[rag.FragmentKey]rag.Fragment)
	l.order = nil
	l.turns = make(map[int][]rag.FragmentKey)
}

// GroupByFile groups fragments by source file, keeping first-appearance order.
func GroupByFile(fragments []rag.Fragment) []FileGroup {
	groups := make([]FileGroup, 0)
	index := make(map[string]int)
	for _, f := range fragments {
		name := f.SourceFile()
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, FileGroup{Filename: name})
		}
		groups[i].Fragments = append(groups[i].Fragments, f)
	}
	return groups
}
