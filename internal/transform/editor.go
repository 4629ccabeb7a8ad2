package transform

import (
	"sync"
	"time"
)

// DefaultQuietWindow is how long a field must be untouched before its
// latest value settles.
const DefaultQuietWindow = 500 * time.Millisecond

// Editor coalesces rapid field edits: one pending timer per field, reset on
// every new value, so only the last value inside the quiet window settles.
// Intermediate values are discarded by design; there is no queue and no
// cross-field ordering, only last-write-wins per field.
type Editor struct {
	mu      sync.Mutex
	typ     Type
	window  time.Duration
	pending map[string]*pendingEdit
	settled map[string]string
}

type pendingEdit struct {
	value string
	timer *time.Timer
}

// NewEditor creates an Editor for one transformation type. A non-positive
// window settles edits immediately (useful in tests).
func NewEditor(typ Type, window time.Duration) *Editor {
	return &Editor{
		typ:     typ,
		window:  window,
		pending: make(map[string]*pendingEdit),
		settled: make(map[string]string),
	}
}

// Set records a field edit, restarting that field's quiet-window timer.
// Fields outside the type's parameter schema are rejected.
func (e *Editor) Set(field, value string) error {
	if err := ValidateField(e.typ, field); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if prev, ok := e.pending[field]; ok {
		prev.timer.Stop()
	}

	if e.window <= 0 {
		delete(e.pending, field)
		e.settled[field] = value
		return nil
	}

	edit := &pendingEdit{value: value}
	edit.timer = time.AfterFunc(e.window, func() {
		e.settle(field, edit)
	})
	e.pending[field] = edit
	return nil
}

// settle moves a fired edit into the settled set, unless a newer edit
// already replaced it.
func (e *Editor) settle(field string, edit *pendingEdit) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, ok := e.pending[field]
	if !ok || current != edit {
		return
	}
	delete(e.pending, field)
	e.settled[field] = edit.value
}

// Flush settles every pending edit immediately and returns the settled
// set, clearing the editor. Called right before a merge so the final value
// per field always reaches the merge step.
func (e *Editor) Flush() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	for field, edit := range e.pending {
		edit.timer.Stop()
		e.settled[field] = edit.value
	}
	e.pending = make(map[string]*pendingEdit)

	out := e.settled
	e.settled = make(map[string]string)
	return out
}

// HasEdits reports whether any pending or settled edit exists.
func (e *Editor) HasEdits() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending) > 0 || len(e.settled) > 0
}
