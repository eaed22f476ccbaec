package negamax

import (
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

// Rough cost of one map slot: key, entry and bucket overhead.
const entrySize = 64

// Never size a table below this, whatever the memory budget says.
const minEntries = 1 << 12

// TableEntry is a cached search result. Alpha and Beta are the window the
// search was called with; the score is only reusable for windows inside it.
type TableEntry struct {
	Score int
	Depth int
	Alpha int
	Beta  int
}

// usable returns true if the entry answers a search of the given depth and
// window.
func (e TableEntry) usable(depth, α, β int) bool {
	return e.Depth >= depth && e.Alpha <= α && e.Beta >= β
}

// TranspositionTable caches search results by position hash. A table belongs
// to a single search and is not safe for concurrent use.
type TranspositionTable struct {
	table    map[uint64]TableEntry
	capacity int

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// stores refused because the table was full
	dropped atomic.Uint64
}

// NewTranspositionTable creates a table holding at most capacity entries.
// A capacity of zero or less means no limit.
func NewTranspositionTable(capacity int) *TranspositionTable {
	return &TranspositionTable{
		table:    make(map[uint64]TableEntry),
		capacity: capacity,
	}
}

// CapacityFor returns how many entries each of n simultaneously live tables
// may hold so that together they use about fractionOfMemory of the
// system's memory.
func CapacityFor(fractionOfMemory float64, n int) int {
	if n < 1 {
		n = 1
	}
	totalMem := memory.TotalMemory()
	desired := int(fractionOfMemory * float64(totalMem) / float64(entrySize) / float64(n))
	if desired < minEntries {
		desired = minEntries
	}
	log.Debug().Int("entries-per-table", desired).
		Int("tables", n).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-size")
	return desired
}

func (t *TranspositionTable) lookup(zval uint64) (TableEntry, bool) {
	t.lookups.Add(1)
	e, ok := t.table[zval]
	if ok {
		t.hits.Add(1)
	}
	return e, ok
}

func (t *TranspositionTable) store(zval uint64, e TableEntry) {
	if t.capacity > 0 && len(t.table) >= t.capacity {
		if _, ok := t.table[zval]; !ok {
			t.dropped.Add(1)
			return
		}
	}
	// just overwrite whatever is there.
	t.table[zval] = e
	t.created.Add(1)
}

// Len returns the number of cached positions.
func (t *TranspositionTable) Len() int {
	return len(t.table)
}

// Reset empties the table and its counters.
func (t *TranspositionTable) Reset() {
	clear(t.table)
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.dropped.Store(0)
}

func (t *TranspositionTable) logStats() {
	log.Debug().Uint64("created", t.created.Load()).
		Uint64("lookups", t.lookups.Load()).
		Uint64("hits", t.hits.Load()).
		Uint64("dropped", t.dropped.Load()).
		Int("size", len(t.table)).
		Msg("transposition-table-stats")
}
