package transform

import (
	"errors"
	"testing"
	"time"
)

func TestEditor_ImmediateSettleWithoutWindow(t *testing.T) {
	e := NewEditor(TypeRecolor, 0)

	if err := e.Set(FieldPrompt, "the car"); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if !e.HasEdits() {
		t.Fatal("expected pending edits")
	}

	edits := e.Flush()
	if edits[FieldPrompt] != "the car" {
		t.Errorf("prompt = %q, want %q", edits[FieldPrompt], "the car")
	}
	if e.HasEdits() {
		t.Error("editor not cleared after flush")
	}
}

func TestEditor_RejectsUnknownField(t *testing.T) {
	e := NewEditor(TypeRestore, 0)

	if err := e.Set(FieldPrompt, "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("error = %v, want ErrUnknownField", err)
	}
	if e.HasEdits() {
		t.Error("rejected edit must not be recorded")
	}
}

func TestEditor_LastWriteWinsWithinWindow(t *testing.T) {
	// A window long enough that nothing settles on its own during the test.
	e := NewEditor(TypeRecolor, time.Minute)

	for _, value := range []string{"r", "re", "red"} {
		if err := e.Set(FieldColor, value); err != nil {
			t.Fatalf("Set error = %v", err)
		}
	}

	edits := e.Flush()
	if edits[FieldColor] != "red" {
		t.Errorf("color = %q, want only the final value %q", edits[FieldColor], "red")
	}
}

func TestEditor_SettlesAfterQuietWindow(t *testing.T) {
	e := NewEditor(TypeRemove, 10*time.Millisecond)

	if err := e.Set(FieldPrompt, "the chair"); err != nil {
		t.Fatalf("Set error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		e.mu.Lock()
		settled := e.settled[FieldPrompt]
		e.mu.Unlock()
		if settled == "the chair" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("edit never settled after quiet window")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEditor_FlushBeatsTimer(t *testing.T) {
	// Flush must deliver the value even if the quiet window has not elapsed.
	e := NewEditor(TypeFill, time.Hour)

	if err := e.Set(FieldAspectRatio, "9:16"); err != nil {
		t.Fatalf("Set error = %v", err)
	}

	edits := e.Flush()
	if edits[FieldAspectRatio] != "9:16" {
		t.Errorf("aspectRatio = %q, want %q", edits[FieldAspectRatio], "9:16")
	}
}

func TestEditor_PerFieldTimers(t *testing.T) {
	e := NewEditor(TypeRecolor, time.Minute)

	if err := e.Set(FieldPrompt, "the car"); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if err := e.Set(FieldColor, "red"); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	// Rewriting one field must not disturb the other.
	if err := e.Set(FieldColor, "blue"); err != nil {
		t.Fatalf("Set error = %v", err)
	}

	edits := e.Flush()
	if edits[FieldPrompt] != "the car" {
		t.Errorf("prompt = %q, want %q", edits[FieldPrompt], "the car")
	}
	if edits[FieldColor] != "blue" {
		t.Errorf("color = %q, want %q", edits[FieldColor], "blue")
	}
}
