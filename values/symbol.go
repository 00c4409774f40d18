package values

import "sync"

// Symbol is a unique or registry-keyed token (spec §3.1). Well-known symbols
// (iterator, toStringTag, hasInstance, ...) are pre-created at interpreter
// startup and shared via WellKnown.
type Symbol struct {
	Description string
	registryKey string // non-empty for Symbol.for(key) registry symbols
}

// NewSymbol creates a unique symbol; two calls with the same description are
// never equal (identity, not content, defines symbol equality).
func NewSymbol(description string) *Symbol {
	return &Symbol{Description: description}
}

// SymbolRegistry implements the global Symbol.for/Symbol.keyFor registry.
// One registry belongs to each interpreter instance.
type SymbolRegistry struct {
	mu   sync.Mutex
	byKey map[string]*Symbol
}

// NewSymbolRegistry constructs an empty registry.
func NewSymbolRegistry() *SymbolRegistry {
	return &SymbolRegistry{byKey: make(map[string]*Symbol)}
}

// For implements Symbol.for(key): returns the same Symbol for the same key
// across the lifetime of the interpreter.
func (r *SymbolRegistry) For(key string) *Symbol {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sym, ok := r.byKey[key]; ok {
		return sym
	}
	sym := &Symbol{Description: key, registryKey: key}
	r.byKey[key] = sym
	return sym
}

// KeyFor implements Symbol.keyFor(sym): the registry key, or ("", false) if
// sym was not obtained via For.
func (r *SymbolRegistry) KeyFor(sym *Symbol) (string, bool) {
	if sym == nil || sym.registryKey == "" {
		return "", false
	}
	return sym.registryKey, true
}

// WellKnownSymbols holds the pre-created symbols every interpreter needs
// (spec §3.1).
type WellKnownSymbols struct {
	Iterator      *Symbol
	AsyncIterator *Symbol
	ToStringTag   *Symbol
	HasInstance   *Symbol
	ToPrimitive   *Symbol
}

// NewWellKnownSymbols allocates a fresh set, one per interpreter instance —
// well-known symbols must not be shared across interpreters any more than
// any other mutable interpreter state.
func NewWellKnownSymbols() *WellKnownSymbols {
	return &WellKnownSymbols{
		Iterator:      NewSymbol("Symbol.iterator"),
		AsyncIterator: NewSymbol("Symbol.asyncIterator"),
		ToStringTag:   NewSymbol("Symbol.toStringTag"),
		HasInstance:   NewSymbol("Symbol.hasInstance"),
		ToPrimitive:   NewSymbol("Symbol.toPrimitive"),
	}
}
