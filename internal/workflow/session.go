// Package workflow runs the transformation editing lifecycle: a session
// holds one source asset and one transformation type, collects debounced
// field edits, charges a credit per applied batch, and hands the final
// configuration off for persistence.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nazifamoh/artifyAI/internal/transform"
)

// State is the lifecycle position of a session.
type State string

const (
	StateIdle     State = "idle"
	StateEditing  State = "editing"
	StateApplying State = "applying"
	StateApplied  State = "applied"
	StateSaving   State = "saving"
	StateSaved    State = "saved"
)

var (
	// ErrOperationInFlight is returned when an apply or save is already running.
	ErrOperationInFlight = errors.New("operation already in flight")
	// ErrNothingToApply is returned when no edits arrived since the last apply.
	ErrNothingToApply = errors.New("no pending edits to apply")
	// ErrInsufficientCredits is returned when the balance cannot cover the
	// fee. Gate implementations must return this sentinel (wrapped or not)
	// so the session can refuse without charging.
	ErrInsufficientCredits = errors.New("insufficient credits for transformation")
	// ErrNotApplied is returned when save is requested before any apply.
	ErrNotApplied = errors.New("nothing applied to save")
	// ErrAlreadySaved is returned for operations on a completed session.
	ErrAlreadySaved = errors.New("session already saved")
)

// CreditGate charges the per-apply fee. Implementations must be atomic:
// two concurrent debits may never both succeed past a balance only one fits.
type CreditGate interface {
	Balance(ctx context.Context, userID string) (int, error)
	Debit(ctx context.Context, userID string, amount int, reference string) (int, error)
}

// SaveRequest carries everything needed to persist an applied result.
type SaveRequest struct {
	OwnerID        string
	Title          string
	PublicID       string
	Type           transform.Type
	Config         transform.Config
	Width          int
	Height         int
	SecureURL      string
	TransformedURL string
}

// Saver persists an applied transformation result and returns the stored
// image ID.
type Saver interface {
	Save(ctx context.Context, req SaveRequest) (string, error)
}

// Source describes the uploaded asset a session edits.
type Source struct {
	PublicID  string
	SecureURL string
	Title     string
	Width     int
	Height    int
}

// Session is one editing workflow over a single source asset. All state
// transitions happen under the session mutex; the identity of the owner is
// fixed at creation and checked by the manager on every lookup.
type Session struct {
	ID      string
	OwnerID string

	mu         sync.Mutex
	typ        transform.Type
	state      State
	source     Source
	editor     *transform.Editor
	active     transform.Config
	applied    bool
	previewURL string
	fee        int
	applies    int
	createdAt  time.Time
	lastTouch  time.Time
}

// newSession builds a session in the Idle state with the type's default
// configuration active.
func newSession(id, ownerID string, typ transform.Type, source Source, quietWindow time.Duration, fee int) (*Session, error) {
	base, err := transform.Default(typ)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:        id,
		OwnerID:   ownerID,
		typ:       typ,
		state:     StateIdle,
		source:    source,
		editor:    transform.NewEditor(typ, quietWindow),
		active:    base,
		fee:       fee,
		createdAt: now,
		lastTouch: now,
	}, nil
}

// Type returns the session's transformation type.
func (s *Session) Type() transform.Type {
	return s.typ
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot describes the session for API responses.
type Snapshot struct {
	ID         string           `json:"id"`
	Type       transform.Type   `json:"type"`
	State      State            `json:"state"`
	Config     transform.Config `json:"config"`
	PreviewURL string           `json:"preview_url,omitempty"`
	Applies    int              `json:"applies"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Snapshot returns a point-in-time view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.ID,
		Type:       s.typ,
		State:      s.state,
		Config:     s.active.Clone(),
		PreviewURL: s.previewURL,
		Applies:    s.applies,
		CreatedAt:  s.createdAt,
	}
}

// Edit records a single field edit. The value does not take effect until
// its quiet window elapses (or an apply flushes it); only the last value
// written to a field inside the window survives.
func (s *Session) Edit(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateApplying, StateSaving:
		return ErrOperationInFlight
	case StateSaved:
		return ErrAlreadySaved
	}

	if err := s.editor.Set(field, value); err != nil {
		return err
	}
	s.state = StateEditing
	s.lastTouch = time.Now()
	return nil
}

// Apply charges one fee and folds every edit recorded so far into the
// active configuration, producing a new preview URL. The charge happens
// once per apply regardless of how many fields changed. An insufficient
// balance refuses the apply before any debit; the recorded edits stay
// pending so a later apply (after a top-up) still sees them.
func (s *Session) Apply(ctx context.Context, gate CreditGate, baseURL, cloud string) (Snapshot, error) {
	s.mu.Lock()
	switch s.state {
	case StateApplying, StateSaving:
		s.mu.Unlock()
		return Snapshot{}, ErrOperationInFlight
	case StateSaved:
		s.mu.Unlock()
		return Snapshot{}, ErrAlreadySaved
	}
	if !s.editor.HasEdits() && s.applied {
		s.mu.Unlock()
		return Snapshot{}, ErrNothingToApply
	}

	prev := s.state
	s.state = StateApplying
	s.mu.Unlock()

	balance, err := gate.Balance(ctx, s.OwnerID)
	if err != nil {
		s.restore(prev)
		return Snapshot{}, fmt.Errorf("check balance: %w", err)
	}
	if balance < s.fee {
		s.restore(prev)
		return Snapshot{}, ErrInsufficientCredits
	}

	if _, err := gate.Debit(ctx, s.OwnerID, s.fee, s.ID); err != nil {
		s.restore(prev)
		if errors.Is(err, ErrInsufficientCredits) {
			return Snapshot{}, ErrInsufficientCredits
		}
		return Snapshot{}, fmt.Errorf("debit credits: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	edits := s.editor.Flush()
	merged, err := transform.Merge(s.active, edits)
	if err != nil {
		// The debit stands; the ledger entry keeps the charge auditable.
		s.state = prev
		return Snapshot{}, fmt.Errorf("merge configuration: %w", err)
	}

	width, height := s.previewDimensions(merged)
	s.active = merged
	s.applied = true
	s.applies++
	s.previewURL = transform.DeliveryURL(baseURL, cloud, s.source.PublicID, merged, width, height)
	s.state = StateApplied
	s.lastTouch = time.Now()

	return Snapshot{
		ID:         s.ID,
		Type:       s.typ,
		State:      s.state,
		Config:     s.active.Clone(),
		PreviewURL: s.previewURL,
		Applies:    s.applies,
		CreatedAt:  s.createdAt,
	}, nil
}

// Save persists the active configuration. Only applied state is saved:
// edits recorded after the last apply are deliberately excluded. On
// failure the session returns to its pre-save state so the save can be
// retried.
func (s *Session) Save(ctx context.Context, saver Saver) (string, error) {
	s.mu.Lock()
	switch s.state {
	case StateApplying, StateSaving:
		s.mu.Unlock()
		return "", ErrOperationInFlight
	case StateSaved:
		s.mu.Unlock()
		return "", ErrAlreadySaved
	}
	if !s.applied {
		s.mu.Unlock()
		return "", ErrNotApplied
	}

	req := SaveRequest{
		OwnerID:        s.OwnerID,
		Title:          s.source.Title,
		PublicID:       s.source.PublicID,
		Type:           s.typ,
		Config:         s.active.Clone(),
		SecureURL:      s.source.SecureURL,
		TransformedURL: s.previewURL,
	}
	req.Width, req.Height = s.previewDimensions(s.active)
	prev := s.state
	s.state = StateSaving
	s.mu.Unlock()

	imageID, err := saver.Save(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Editing survives a failed save: edits recorded after the last
		// apply are still pending.
		s.state = prev
		return "", fmt.Errorf("save transformation: %w", err)
	}
	s.state = StateSaved
	s.lastTouch = time.Now()
	return imageID, nil
}

// restore puts the session back into its pre-operation state.
func (s *Session) restore(prev State) {
	s.mu.Lock()
	s.state = prev
	s.mu.Unlock()
}

// previewDimensions picks the output frame: the selected aspect ratio for
// fill-style types, otherwise the source dimensions.
func (s *Session) previewDimensions(cfg transform.Config) (int, int) {
	key := ""
	switch cfg.Type {
	case transform.TypeFill:
		if cfg.Fill != nil {
			key = cfg.Fill.AspectRatio
		}
	case transform.TypeGenerativeFill:
		if cfg.GenerativeFill != nil {
			key = cfg.GenerativeFill.AspectRatio
		}
	}
	if key != "" {
		if ar, ok := transform.LookupAspectRatio(key); ok {
			return ar.Width, ar.Height
		}
	}
	return s.source.Width, s.source.Height
}

// expired reports whether the session has been idle past the TTL.
func (s *Session) expired(ttl time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateApplying || s.state == StateSaving {
		return false
	}
	return now.Sub(s.lastTouch) > ttl
}
