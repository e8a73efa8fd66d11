package ranges

import "sort"

// Ledger tracks which parts of the image free space are consumed by which
// feature. Each (owner, tag) pair owns at most one set; reassigning replaces it,
// so rerunning a feature reuses its own space instead of leaking it.
type Ledger struct {
	assigned map[ledgerKey]Set
	base     Set
}

type ledgerKey struct {
	owner string
	tag   string
}

// NewLedger creates a ledger over the given free space.
func NewLedger(free Set) *Ledger {
	return &Ledger{
		base:     free,
		assigned: map[ledgerKey]Set{},
	}
}

// Base returns the free space the ledger was created with.
func (l *Ledger) Base() Set { return l.base }

// Free returns the space available to (owner, tag): the base free space minus
// everything assigned to other keys.
func (l *Ledger) Free(owner, tag string) Set {
	self := ledgerKey{owner: owner, tag: tag}
	out := l.base
	for _, k := range l.keys() {
		if k == self {
			continue
		}
		out = out.Difference(l.assigned[k])
	}

	return out
}

// Assign records s as consumed by (owner, tag), replacing any earlier record.
func (l *Ledger) Assign(owner, tag string, s Set) {
	k := ledgerKey{owner: owner, tag: tag}
	if s.Empty() {
		delete(l.assigned, k)
		return
	}
	l.assigned[k] = s
}

// Assigned returns the space recorded for (owner, tag).
func (l *Ledger) Assigned(owner, tag string) Set {
	return l.assigned[ledgerKey{owner: owner, tag: tag}]
}

// Used returns the union of every assignment.
func (l *Ledger) Used() Set {
	var out Set
	for _, k := range l.keys() {
		out = out.Union(l.assigned[k])
	}

	return out
}

// keys returns the assignment keys in a stable order.
func (l *Ledger) keys() []ledgerKey {
	keys := make([]ledgerKey, 0, len(l.assigned))
	for k := range l.assigned {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].owner != keys[j].owner {
			return keys[i].owner < keys[j].owner
		}
		return keys[i].tag < keys[j].tag
	})

	return keys
}
