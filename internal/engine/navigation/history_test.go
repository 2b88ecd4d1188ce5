package navigation

import (
	"reflect"
	"testing"
)

func TestHistory_Empty(t *testing.T) {
	var h History
	if _, ok := h.Current(); ok {
		t.Fatal("expected no current entry")
	}
	if h.HasPrevious() || h.HasNext() {
		t.Fatal("expected no neighbours")
	}
	if h.Cursor() != -1 {
		t.Fatalf("expected cursor -1, got %d", h.Cursor())
	}
	if _, _, ok := h.Back(); ok {
		t.Fatal("expected Back to fail on empty history")
	}
	if _, _, ok := h.Forward(); ok {
		t.Fatal("expected Forward to fail on empty history")
	}
}

func TestHistory_BoundariesLeaveCursorUnchanged(t *testing.T) {
	h := History{}.Push("a.ts")

	back, item, ok := h.Back()
	if ok || item != "" {
		t.Fatalf("expected not-present, got %q %v", item, ok)
	}
	if cur, _ := back.Current(); cur != "a.ts" {
		t.Fatalf("expected current a.ts, got %q", cur)
	}

	fwd, item, ok := h.Forward()
	if ok || item != "" {
		t.Fatalf("expected not-present, got %q %v", item, ok)
	}
	if cur, _ := fwd.Current(); cur != "a.ts" {
		t.Fatalf("expected current a.ts, got %q", cur)
	}
}

func TestHistory_BackForward(t *testing.T) {
	h := History{}.Push("a").Push("b").Push("c")

	h, item, ok := h.Back()
	if !ok || item != "b" {
		t.Fatalf("expected b, got %q %v", item, ok)
	}
	if !h.HasPrevious() || !h.HasNext() {
		t.Fatal("expected both neighbours in the middle")
	}

	h, item, _ = h.Back()
	if item != "a" || h.HasPrevious() {
		t.Fatalf("expected a at the start, got %q", item)
	}

	h, item, _ = h.Forward()
	h, item, _ = h.Forward()
	if item != "c" || h.HasNext() {
		t.Fatalf("expected c at the end, got %q", item)
	}
}

func TestHistory_PushDiscardsForwardBranch(t *testing.T) {
	h := History{}.Push("a").Push("b").Push("c")
	h, _, _ = h.Back()
	h, _, _ = h.Back()

	h = h.Push("d")

	if got := h.Items(); !reflect.DeepEqual(got, []string{"a", "d"}) {
		t.Fatalf("unexpected items: %v", got)
	}
	if h.HasNext() {
		t.Fatal("expected forward branch to be gone")
	}
	if cur, _ := h.Current(); cur != "d" {
		t.Fatalf("expected current d, got %q", cur)
	}
}

func TestHistory_TransitionsDoNotMutateReceiver(t *testing.T) {
	base := History{}.Push("a").Push("b")
	back, _, _ := base.Back()

	branch := back.Push("x")
	other := base.Push("y")

	if got := base.Items(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("base mutated: %v", got)
	}
	if cur, _ := base.Current(); cur != "b" {
		t.Fatalf("base cursor moved: %q", cur)
	}
	if got := branch.Items(); !reflect.DeepEqual(got, []string{"a", "x"}) {
		t.Fatalf("unexpected branch: %v", got)
	}
	if got := other.Items(); !reflect.DeepEqual(got, []string{"a", "b", "y"}) {
		t.Fatalf("unexpected other: %v", got)
	}
}

func TestHistory_Clear(t *testing.T) {
	h := History{}.Push("a").Push("b").Clear()
	if h.Len() != 0 {
		t.Fatalf("expected empty history, got %d", h.Len())
	}
	if _, ok := h.Current(); ok {
		t.Fatal("expected no current entry after clear")
	}
}
