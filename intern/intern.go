// Package intern provides a per-interpreter string dictionary.
//
// Every interpreter instance owns exactly one Table; identifiers and short
// string literals seen by the compiler and the VM are interned into it so
// repeated occurrences of the same text share one backing string. Tables are
// never shared across interpreters, matching the "no process-wide statics"
// rule for global mutable state.
package intern

import "sync"

// Table is a thread-safe string interning dictionary.
type Table struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewTable constructs an empty interning table.
func NewTable() *Table {
	return &Table{data: make(map[string]string, 256)}
}

// Intern returns the canonical copy of s, storing s the first time it is seen.
func (t *Table) Intern(s string) string {
	t.mu.RLock()
	if existing, ok := t.data[s]; ok {
		t.mu.RUnlock()
		return existing
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.data[s]; ok {
		return existing
	}
	t.data[s] = s
	return s
}

// Len reports how many distinct strings are currently interned.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}

// Has reports whether s has already been interned, without interning it.
func (t *Table) Has(s string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.data[s]
	return ok
}
