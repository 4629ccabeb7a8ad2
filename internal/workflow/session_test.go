package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Nazifamoh/artifyAI/internal/transform"
)

const (
	testBaseURL = "https://res.cloudinary.com"
	testCloud   = "demo"
)

// fakeGate is a CreditGate with a fixed starting balance.
type fakeGate struct {
	mu      sync.Mutex
	balance int
	debits  int
	block   chan struct{} // if set, Balance blocks until closed
}

func (g *fakeGate) Balance(ctx context.Context, userID string) (int, error) {
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balance, nil
}

func (g *fakeGate) Debit(ctx context.Context, userID string, amount int, reference string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.balance < amount {
		return 0, ErrInsufficientCredits
	}
	g.balance -= amount
	g.debits++
	return g.balance, nil
}

// fakeSaver records save requests and can be made to fail.
type fakeSaver struct {
	saved []SaveRequest
	err   error
}

func (s *fakeSaver) Save(ctx context.Context, req SaveRequest) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, req)
	return fmt.Sprintf("img_%d", len(s.saved)), nil
}

func testSource() Source {
	return Source{
		PublicID:  "uploads/abc123",
		SecureURL: "https://res.cloudinary.com/demo/image/upload/uploads/abc123",
		Title:     "holiday photo",
		Width:     800,
		Height:    600,
	}
}

// newTestSession uses a zero quiet window so edits settle immediately.
func newTestSession(t *testing.T, typ transform.Type) *Session {
	t.Helper()
	s, err := newSession("sess_1", "user_1", typ, testSource(), 0, 1)
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}
	return s
}

func TestSessionStartsIdleWithDefaults(t *testing.T) {
	s := newTestSession(t, transform.TypeRecolor)

	if got := s.State(); got != StateIdle {
		t.Errorf("initial state = %s, want %s", got, StateIdle)
	}

	snap := s.Snapshot()
	if snap.Config.Type != transform.TypeRecolor {
		t.Errorf("config type = %s, want recolor", snap.Config.Type)
	}
	if snap.Config.Recolor == nil {
		t.Fatal("recolor parameter group not initialized")
	}
}

func TestEditTransitionsToEditing(t *testing.T) {
	s := newTestSession(t, transform.TypeRemove)

	if err := s.Edit(transform.FieldPrompt, "lamp post"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if got := s.State(); got != StateEditing {
		t.Errorf("state = %s, want %s", got, StateEditing)
	}
}

func TestEditRejectsUnknownField(t *testing.T) {
	s := newTestSession(t, transform.TypeRestore)

	err := s.Edit(transform.FieldPrompt, "anything")
	if !errors.Is(err, transform.ErrUnknownField) {
		t.Errorf("Edit() error = %v, want ErrUnknownField", err)
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("state after rejected edit = %s, want %s", got, StateIdle)
	}
}

func TestApplyChargesOncePerBatch(t *testing.T) {
	s := newTestSession(t, transform.TypeRecolor)
	gate := &fakeGate{balance: 10}

	if err := s.Edit(transform.FieldPrompt, "the car"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if err := s.Edit(transform.FieldColor, "red"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	snap, err := s.Apply(context.Background(), gate, testBaseURL, testCloud)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if gate.debits != 1 {
		t.Errorf("debits = %d, want 1 for a multi-field batch", gate.debits)
	}
	if gate.balance != 9 {
		t.Errorf("balance = %d, want 9", gate.balance)
	}
	if snap.State != StateApplied {
		t.Errorf("state = %s, want %s", snap.State, StateApplied)
	}
	if snap.Config.Recolor.Prompt != "the car" || snap.Config.Recolor.To != "red" {
		t.Errorf("merged config = %+v", snap.Config.Recolor)
	}
	if snap.PreviewURL == "" {
		t.Error("preview URL is empty after apply")
	}
}

func TestApplyKeepsUntouchedSiblingKeys(t *testing.T) {
	s := newTestSession(t, transform.TypeRecolor)
	gate := &fakeGate{balance: 10}

	if err := s.Edit(transform.FieldPrompt, "the car"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if _, err := s.Apply(context.Background(), gate, testBaseURL, testCloud); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}

	// Second batch touches only the color; the prompt must survive.
	if err := s.Edit(transform.FieldColor, "blue"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	snap, err := s.Apply(context.Background(), gate, testBaseURL, testCloud)
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}

	if snap.Config.Recolor.Prompt != "the car" {
		t.Errorf("prompt = %q, want retained value from first batch", snap.Config.Recolor.Prompt)
	}
	if snap.Config.Recolor.To != "blue" {
		t.Errorf("to = %q, want blue", snap.Config.Recolor.To)
	}
	if gate.debits != 2 {
		t.Errorf("debits = %d, want 2 (one per apply)", gate.debits)
	}
}

func TestLastEditWinsWithinBatch(t *testing.T) {
	s := newTestSession(t, transform.TypeRemove)
	gate := &fakeGate{balance: 10}

	for _, v := range []string{"c", "ca", "cat"} {
		if err := s.Edit(transform.FieldPrompt, v); err != nil {
			t.Fatalf("Edit(%q) error = %v", v, err)
		}
	}

	snap, err := s.Apply(context.Background(), gate, testBaseURL, testCloud)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if snap.Config.Remove.Prompt != "cat" {
		t.Errorf("prompt = %q, want last value %q", snap.Config.Remove.Prompt, "cat")
	}
	if gate.debits != 1 {
		t.Errorf("debits = %d, want 1", gate.debits)
	}
}

func TestFirstApplyAllowedWithoutEdits(t *testing.T) {
	// Auto-configured types have no editable fields but still apply.
	s := newTestSession(t, transform.TypeRestore)
	gate := &fakeGate{balance: 5}

	snap, err := s.Apply(context.Background(), gate, testBaseURL, testCloud)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if snap.State != StateApplied {
		t.Errorf("state = %s, want %s", snap.State, StateApplied)
	}
	if gate.debits != 1 {
		t.Errorf("debits = %d, want 1", gate.debits)
	}
}

func TestReapplyWithoutNewEditsRejected(t *testing.T) {
	s := newTestSession(t, transform.TypeRestore)
	gate := &fakeGate{balance: 5}

	if _, err := s.Apply(context.Background(), gate, testBaseURL, testCloud); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	_, err := s.Apply(context.Background(), gate, testBaseURL, testCloud)
	if !errors.Is(err, ErrNothingToApply) {
		t.Errorf("second Apply() error = %v, want ErrNothingToApply", err)
	}
	if gate.debits != 1 {
		t.Errorf("debits = %d, want 1 (rejected apply must not charge)", gate.debits)
	}
}

func TestApplyInsufficientCreditsKeepsEdits(t *testing.T) {
	s := newTestSession(t, transform.TypeRemove)
	gate := &fakeGate{balance: 0}

	if err := s.Edit(transform.FieldPrompt, "bench"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	_, err := s.Apply(context.Background(), gate, testBaseURL, testCloud)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("Apply() error = %v, want ErrInsufficientCredits", err)
	}
	if gate.debits != 0 {
		t.Errorf("debits = %d, want 0", gate.debits)
	}
	if got := s.State(); got != StateEditing {
		t.Errorf("state = %s, want %s (refusal is not a terminal state)", got, StateEditing)
	}

	// After a top-up the same edits apply.
	gate.balance = 3
	snap, err := s.Apply(context.Background(), gate, testBaseURL, testCloud)
	if err != nil {
		t.Fatalf("Apply() after top-up error = %v", err)
	}
	if snap.Config.Remove.Prompt != "bench" {
		t.Errorf("prompt = %q, want edits retained across refusal", snap.Config.Remove.Prompt)
	}
}

func TestApplyRejectsConcurrentApply(t *testing.T) {
	s := newTestSession(t, transform.TypeRestore)
	gate := &fakeGate{balance: 5, block: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := s.Apply(context.Background(), gate, testBaseURL, testCloud)
		done <- err
	}()

	// Wait for the first apply to enter the Applying state.
	for s.State() != StateApplying {
		time.Sleep(time.Millisecond)
	}

	_, err := s.Apply(context.Background(), &fakeGate{balance: 5}, testBaseURL, testCloud)
	if !errors.Is(err, ErrOperationInFlight) {
		t.Errorf("concurrent Apply() error = %v, want ErrOperationInFlight", err)
	}

	close(gate.block)
	if err := <-done; err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
}

func TestSaveBeforeApplyRejected(t *testing.T) {
	s := newTestSession(t, transform.TypeRemove)

	_, err := s.Save(context.Background(), &fakeSaver{})
	if !errors.Is(err, ErrNotApplied) {
		t.Errorf("Save() error = %v, want ErrNotApplied", err)
	}
}

func TestSavePersistsAppliedConfigOnly(t *testing.T) {
	s := newTestSession(t, transform.TypeRecolor)
	gate := &fakeGate{balance: 10}

	if err := s.Edit(transform.FieldPrompt, "the sofa"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if _, err := s.Apply(context.Background(), gate, testBaseURL, testCloud); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// An edit made after the apply is not part of the applied result.
	if err := s.Edit(transform.FieldColor, "green"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	saver := &fakeSaver{}
	imageID, err := s.Save(context.Background(), saver)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if imageID == "" {
		t.Error("Save() returned empty image ID")
	}

	if len(saver.saved) != 1 {
		t.Fatalf("saved %d requests, want 1", len(saver.saved))
	}
	req := saver.saved[0]
	if req.Config.Recolor.Prompt != "the sofa" {
		t.Errorf("saved prompt = %q", req.Config.Recolor.Prompt)
	}
	if req.Config.Recolor.To != "" {
		t.Errorf("saved to = %q, want unapplied edit excluded", req.Config.Recolor.To)
	}
	if req.OwnerID != "user_1" {
		t.Errorf("saved owner = %q", req.OwnerID)
	}
	if got := s.State(); got != StateSaved {
		t.Errorf("state = %s, want %s", got, StateSaved)
	}
}

func TestSaveFailureAllowsRetry(t *testing.T) {
	s := newTestSession(t, transform.TypeRestore)
	gate := &fakeGate{balance: 5}

	if _, err := s.Apply(context.Background(), gate, testBaseURL, testCloud); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	saver := &fakeSaver{err: errors.New("database unavailable")}
	if _, err := s.Save(context.Background(), saver); err == nil {
		t.Fatal("Save() expected error")
	}
	if got := s.State(); got != StateApplied {
		t.Errorf("state after failed save = %s, want %s", got, StateApplied)
	}

	saver.err = nil
	if _, err := s.Save(context.Background(), saver); err != nil {
		t.Fatalf("retried Save() error = %v", err)
	}
}

func TestSaveFailureKeepsEditingState(t *testing.T) {
	s := newTestSession(t, transform.TypeRecolor)
	gate := &fakeGate{balance: 5}

	if err := s.Edit(transform.FieldPrompt, "the sofa"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if _, err := s.Apply(context.Background(), gate, testBaseURL, testCloud); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// A post-apply edit moves the session back to editing; a failed save
	// must not relabel it as applied.
	if err := s.Edit(transform.FieldColor, "green"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	saver := &fakeSaver{err: errors.New("database unavailable")}
	if _, err := s.Save(context.Background(), saver); err == nil {
		t.Fatal("Save() expected error")
	}
	if got := s.State(); got != StateEditing {
		t.Errorf("state after failed save = %s, want %s", got, StateEditing)
	}

	// The pending edit still folds into the next apply.
	snap, err := s.Apply(context.Background(), gate, testBaseURL, testCloud)
	if err != nil {
		t.Fatalf("Apply() after failed save error = %v", err)
	}
	if snap.Config.Recolor.To != "green" {
		t.Errorf("to = %q, want pending edit retained", snap.Config.Recolor.To)
	}
}

func TestSavedSessionRejectsFurtherWork(t *testing.T) {
	s := newTestSession(t, transform.TypeRestore)
	gate := &fakeGate{balance: 5}

	if _, err := s.Apply(context.Background(), gate, testBaseURL, testCloud); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if _, err := s.Save(context.Background(), &fakeSaver{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := s.Edit(transform.FieldPrompt, "x"); !errors.Is(err, ErrAlreadySaved) {
		// restore has no prompt field, but the state check runs first
		t.Errorf("Edit() error = %v, want ErrAlreadySaved", err)
	}
	if _, err := s.Apply(context.Background(), gate, testBaseURL, testCloud); !errors.Is(err, ErrAlreadySaved) {
		t.Errorf("Apply() error = %v, want ErrAlreadySaved", err)
	}
	if _, err := s.Save(context.Background(), &fakeSaver{}); !errors.Is(err, ErrAlreadySaved) {
		t.Errorf("Save() error = %v, want ErrAlreadySaved", err)
	}
}

func TestPreviewUsesAspectRatioDimensions(t *testing.T) {
	s := newTestSession(t, transform.TypeGenerativeFill)
	gate := &fakeGate{balance: 5}

	if err := s.Edit(transform.FieldAspectRatio, "9:16"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if _, err := s.Apply(context.Background(), gate, testBaseURL, testCloud); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	saver := &fakeSaver{}
	if _, err := s.Save(context.Background(), saver); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	req := saver.saved[0]
	if req.Width != 1000 || req.Height != 1778 {
		t.Errorf("dimensions = %dx%d, want 1000x1778 for 9:16", req.Width, req.Height)
	}
}
