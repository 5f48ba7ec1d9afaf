package index

import "sync/atomic"

// Holder hands out the current Index to concurrent readers while letting
// the resync scheduler swap in a freshly built one. The Index itself stays
// immutable; only the pointer moves.
type Holder struct {
	current atomic.Pointer[Index]
}

// NewHolder returns a Holder seeded with idx, which may be nil until the
// first build completes.
func NewHolder(idx *Index) *Holder {
	h := &Holder{}
	if idx != nil {
		h.current.Store(idx)
	}
	return h
}

// Swap replaces the served index.
func (h *Holder) Swap(idx *Index) {
	h.current.Store(idx)
}

// Query delegates to the current index. Before the first Swap it reports
// the index as not built.
func (h *Holder) Query(text string) ([]Result, error) {
	return h.current.Load().Query(text)
}
