package modelstore

import (
	"sync/atomic"

	"socsentinel/internal/model"
)

// Handle gives concurrent scorers a lock-free view of the current
// snapshot. Swaps are atomic whole-snapshot replacements; in-flight
// scoring keeps the generation it started with.
type Handle struct {
	current atomic.Pointer[model.Snapshot]
}

// NewHandle wraps an initial snapshot, which may be nil when the engine
// starts before any model has been trained.
func NewHandle(snap *model.Snapshot) *Handle {
	h := &Handle{}
	if snap != nil {
		h.current.Store(snap)
	}
	return h
}

// Current returns the active snapshot, or nil when none is loaded.
func (h *Handle) Current() *model.Snapshot {
	return h.current.Load()
}

// Swap installs a new snapshot generation.
func (h *Handle) Swap(snap *model.Snapshot) {
	h.current.Store(snap)
}
