package workflow

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Nazifamoh/artifyAI/internal/metrics"
	"github.com/Nazifamoh/artifyAI/internal/transform"
)

func newTestManager() *Manager {
	return NewManager(30*time.Minute, 0, 1, slog.Default(), metrics.NewNoop())
}

func TestManagerCreateAndGet(t *testing.T) {
	m := newTestManager()

	session, err := m.Create("user_1", transform.TypeRemove, testSource())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.ID == "" {
		t.Fatal("session ID is empty")
	}

	got, err := m.Get(session.ID, "user_1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != session {
		t.Error("Get() returned a different session")
	}
}

func TestManagerCreateRejectsUnknownType(t *testing.T) {
	m := newTestManager()

	_, err := m.Create("user_1", transform.Type("sharpen"), testSource())
	if !errors.Is(err, transform.ErrUnknownType) {
		t.Errorf("Create() error = %v, want ErrUnknownType", err)
	}
}

func TestManagerGetHidesForeignSessions(t *testing.T) {
	m := newTestManager()

	session, err := m.Create("user_1", transform.TypeRestore, testSource())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Another user probing with a valid ID sees not-found, not forbidden.
	if _, err := m.Get(session.ID, "user_2"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerDiscard(t *testing.T) {
	m := newTestManager()

	session, err := m.Create("user_1", transform.TypeRestore, testSource())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := m.Discard(session.ID, "user_2"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("foreign Discard() error = %v, want ErrSessionNotFound", err)
	}

	if err := m.Discard(session.ID, "user_1"); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if _, err := m.Get(session.ID, "user_1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after discard error = %v, want ErrSessionNotFound", err)
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestManagerSweepEvictsIdleSessions(t *testing.T) {
	m := NewManager(time.Minute, 0, 1, slog.Default(), metrics.NewNoop())

	stale, err := m.Create("user_1", transform.TypeRestore, testSource())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	fresh, err := m.Create("user_1", transform.TypeRemove, testSource())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	stale.mu.Lock()
	stale.lastTouch = time.Now().Add(-2 * time.Minute)
	stale.mu.Unlock()

	m.sweep()

	if _, err := m.Get(stale.ID, "user_1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stale session survived the sweep: err = %v", err)
	}
	if _, err := m.Get(fresh.ID, "user_1"); err != nil {
		t.Errorf("fresh session evicted: err = %v", err)
	}
}

func TestManagerSweepSparesInFlightSessions(t *testing.T) {
	m := NewManager(time.Minute, 0, 1, slog.Default(), metrics.NewNoop())

	session, err := m.Create("user_1", transform.TypeRestore, testSource())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	session.mu.Lock()
	session.lastTouch = time.Now().Add(-2 * time.Minute)
	session.state = StateApplying
	session.mu.Unlock()

	m.sweep()

	if _, err := m.Get(session.ID, "user_1"); err != nil {
		t.Errorf("in-flight session evicted: err = %v", err)
	}
}
