package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("Level", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(&buf, "warn")
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		l.Info("hidden")
		l.Warn("object not found", "path", "S1Weapon.Sword")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info logged at warn level: %q", out)
		}
		if !strings.Contains(out, "object not found") || !strings.Contains(out, "S1Weapon.Sword") {
			t.Errorf("warning missing: %q", out)
		}
	})

	t.Run("DefaultLevel", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(&buf, "")
		if err != nil {
			t.Fatal(err)
		}
		l.Debug("hidden")
		l.Info("shown")
		if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("BadLevel", func(t *testing.T) {
		if _, err := New(&bytes.Buffer{}, "loud"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("nil logger")
	}
	l := Discard()
	if OrDiscard(l) != l {
		t.Error("non-nil logger replaced")
	}
}
