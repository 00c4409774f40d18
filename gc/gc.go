// Package gc implements the interpreter's mark-and-sweep heap: a single
// arena ("Space") that owns every heap-allocated object, plus scoped guards
// that pin objects across allocation points that might otherwise trigger a
// collection before the new object is stored into a rooted parent.
//
// The arena is generic over the object type it stores (values.Object in
// practice) so this package has no dependency on the value model; it only
// requires that stored objects implement Traceable.
package gc

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
)

// AggressiveThreshold runs a collection before every single allocation, the
// "aggressive test mode" named in spec §4.3, used to flush out guard bugs.
const AggressiveThreshold = 1

// DefaultThreshold is the production default: collect every 4096 allocations.
const DefaultThreshold = 4096

// RawHandle is the untyped form of a handle: an arena slot plus a generation
// tag. The generation lets Deref detect use-after-free when a slot has been
// recycled (debug builds only pay the comparison cost; it's cheap enough to
// always run here).
type RawHandle struct {
	slot uint32
	gen  uint32
}

// Valid reports whether h refers to any slot at all (the zero RawHandle does
// not, and is used as the "no object" sentinel, e.g. a null prototype).
func (h RawHandle) Valid() bool { return h.gen != 0 }

func (h RawHandle) String() string {
	if !h.Valid() {
		return "<nil>"
	}
	return fmt.Sprintf("#%d.%d", h.slot, h.gen)
}

// Traceable is implemented by every type stored in a Space. Trace must call
// visit once for every RawHandle the object directly references (prototype,
// property values that are objects, accessor pairs, captured environment,
// generator-snapshot registers, promise closures, ...). It must not recurse
// into those handles' own referents; the collector does that.
type Traceable interface {
	Trace(visit func(RawHandle))
}

type cell[T Traceable] struct {
	value T
	gen   uint32
	alive bool
	mark  bool
}

// Stats summarizes one interpreter's heap for diagnostics.
type Stats struct {
	LiveObjects  int
	Capacity     int
	Collections  int
	LastReclaimed int
}

// String renders Stats using human-readable counts, matching the CLI/host
// diagnostic surface (§9 "string-heavy workloads" sibling concern: keep
// diagnostics cheap and readable).
func (s Stats) String() string {
	return fmt.Sprintf("heap: %s live / %s capacity, %d collections (last reclaimed %s)",
		humanize.Comma(int64(s.LiveObjects)), humanize.Comma(int64(s.Capacity)),
		s.Collections, humanize.Comma(int64(s.LastReclaimed)))
}

// RootProvider is supplied by the VM so the collector can enumerate roots it
// doesn't own directly: live frames' register files and the current
// environment chain (spec §4.3 root kind 2).
type RootProvider func() []RawHandle

// Space is the arena. One Space exists per interpreter instance; Spaces are
// never shared, matching the "no process-wide statics" requirement.
type Space[T Traceable] struct {
	mu         sync.Mutex
	cells      []cell[T]
	free       []uint32
	nextGen    uint32
	threshold  int
	sinceGC    int
	collections int
	lastReclaimed int

	permanentRoots []RawHandle
	frameRoots     RootProvider
	guardRoots     map[int]map[RawHandle]int // guard id -> pinned handle -> pin count
	nextGuardID    int
}

// NewSpace constructs an arena with the given collection threshold
// (allocations between collections). Pass AggressiveThreshold for the
// guard-bug-flushing test mode.
func NewSpace[T Traceable](threshold int) *Space[T] {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Space[T]{
		threshold:  threshold,
		guardRoots: make(map[int]map[RawHandle]int),
	}
}

// SetFrameRoots installs the callback the VM uses to report live-frame roots.
func (s *Space[T]) SetFrameRoots(p RootProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameRoots = p
}

// AddPermanentRoot registers a root that is always live (the global object,
// built-in prototypes). Call once at startup per object.
func (s *Space[T]) AddPermanentRoot(h RawHandle) {
	if !h.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permanentRoots = append(s.permanentRoots, h)
}

// Handle is the typed form of RawHandle, used by callers that know the
// element type statically.
type Handle[T Traceable] struct {
	Raw RawHandle
}

// Valid reports whether h refers to a live allocation right now.
func (h Handle[T]) Valid() bool { return h.Raw.Valid() }

// Alloc allocates v into the arena, possibly triggering a collection first
// (spec §4.3: "every allocation point may trigger GC before performing the
// allocation"). Callers that pass values referencing other not-yet-rooted
// objects must hold a Guard across the call.
func (s *Space[T]) Alloc(v T) Handle[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeCollectLocked()

	s.nextGen++
	gen := s.nextGen

	if len(s.free) > 0 {
		slot := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		s.cells[slot] = cell[T]{value: v, gen: gen, alive: true}
		return Handle[T]{Raw: RawHandle{slot: slot, gen: gen}}
	}

	slot := uint32(len(s.cells))
	s.cells = append(s.cells, cell[T]{value: v, gen: gen, alive: true})
	return Handle[T]{Raw: RawHandle{slot: slot, gen: gen}}
}

// Deref returns the live object behind h, or ok=false if h is stale (freed,
// or from a different generation occupying the recycled slot) — a guard
// discipline violation surfaces this way rather than as a dangling pointer.
func (s *Space[T]) Deref(h Handle[T]) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if int(h.Raw.slot) >= len(s.cells) {
		return zero, false
	}
	c := &s.cells[h.Raw.slot]
	if !c.alive || c.gen != h.Raw.gen {
		return zero, false
	}
	return c.value, true
}

// Set overwrites the object behind h in place (used for mutating object
// fields without reallocating, e.g. adding a property).
func (s *Space[T]) Set(h Handle[T], v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(h.Raw.slot) >= len(s.cells) {
		return false
	}
	c := &s.cells[h.Raw.slot]
	if !c.alive || c.gen != h.Raw.gen {
		return false
	}
	c.value = v
	return true
}

// Guard is a short-lived root anchor. Creating a Guard and calling Pin keeps
// an object alive across subsequent allocations until Release is called;
// this is the mechanism that bridges the gap between "allocate" and "store
// into a rooted parent."
type Guard struct {
	id      int
	release func(id int)
}

// Release drops the guard's pins. Safe to call once; idempotent thereafter.
func (g *Guard) Release() {
	if g == nil || g.release == nil {
		return
	}
	g.release(g.id)
	g.release = nil
}

// NewGuard opens a new guard scope on this space.
func (s *Space[T]) NewGuard() *Guard {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGuardID++
	id := s.nextGuardID
	s.guardRoots[id] = make(map[RawHandle]int)
	return &Guard{id: id, release: s.releaseGuard}
}

// Pin anchors h for the lifetime of the guard.
func (s *Space[T]) Pin(g *Guard, h Handle[T]) {
	if g == nil || !h.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.guardRoots[g.id]
	if !ok {
		return
	}
	set[h.Raw]++
}

func (s *Space[T]) releaseGuard(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guardRoots, id)
}

func (s *Space[T]) maybeCollectLocked() {
	s.sinceGC++
	if s.sinceGC < s.threshold {
		return
	}
	s.collectLocked()
}

// Collect forces an immediate mark-and-sweep collection and returns updated
// stats. Exposed so embedders and tests can force deterministic collection
// points (spec §8.1 property 2: terminal value must not depend on
// GC_THRESHOLD).
func (s *Space[T]) Collect() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectLocked()
	return s.statsLocked()
}

func (s *Space[T]) collectLocked() {
	s.sinceGC = 0
	s.collections++

	for i := range s.cells {
		s.cells[i].mark = false
	}

	var gray []RawHandle
	markRoot := func(h RawHandle) {
		if !h.Valid() || int(h.slot) >= len(s.cells) {
			return
		}
		c := &s.cells[h.slot]
		if !c.alive || c.gen != h.gen || c.mark {
			return
		}
		c.mark = true
		gray = append(gray, h)
	}

	for _, h := range s.permanentRoots {
		markRoot(h)
	}
	if s.frameRoots != nil {
		for _, h := range s.frameRoots() {
			markRoot(h)
		}
	}
	for _, set := range s.guardRoots {
		for h := range set {
			markRoot(h)
		}
	}

	for len(gray) > 0 {
		h := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		c := &s.cells[h.slot]
		c.value.Trace(markRoot)
	}

	reclaimed := 0
	var zero T
	for slot := range s.cells {
		c := &s.cells[slot]
		if c.alive && !c.mark {
			c.value = zero // unlink outgoing references before reuse (break cycles)
			c.alive = false
			s.free = append(s.free, uint32(slot))
			reclaimed++
		}
	}
	s.lastReclaimed = reclaimed
}

// Stats returns a snapshot without forcing a collection.
func (s *Space[T]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Space[T]) statsLocked() Stats {
	live := 0
	for _, c := range s.cells {
		if c.alive {
			live++
		}
	}
	return Stats{
		LiveObjects:   live,
		Capacity:      len(s.cells),
		Collections:   s.collections,
		LastReclaimed: s.lastReclaimed,
	}
}
