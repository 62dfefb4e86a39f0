package history

import (
	"os"
	"reflect"
	"testing"

	"stormshield-chat/internal/llm"
	"stormshield-chat/internal/storage"
)

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	st, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return st
}

func TestReconstructRoundTrip(t *testing.T) {
	st := newStore(t)
	if err := st.Append(storage.SessionStart("p1", "low", "engineer")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Append(storage.UserTurn("p1", "A")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Append(storage.AssistantTurn("p1", "B")); err != nil {
		t.Fatalf("append: %v", err)
	}

	r := NewReconstructor(st)
	got, err := r.Reconstruct("p1")
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	want := []llm.Message{
		{Role: "user", Content: "A"},
		{Role: "assistant", Content: "B"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestReconstructIdempotent(t *testing.T) {
	st := newStore(t)
	for _, text := range []string{"one", "two", "three"} {
		if err := st.Append(storage.UserTurn("p1", text)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	r := NewReconstructor(st)
	first, err := r.Reconstruct("p1")
	if err != nil {
		t.Fatalf("first reconstruct: %v", err)
	}
	second, err := r.Reconstruct("p1")
	if err != nil {
		t.Fatalf("second reconstruct: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconstruction not stable: %+v vs %+v", first, second)
	}
}

func TestReconstructSkipsEmptyAndUnknown(t *testing.T) {
	st := newStore(t)
	if err := st.Append(storage.UserTurn("p1", "kept")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Append(storage.AssistantTurn("p1", "")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Append(storage.Event{Timestamp: "2025-01-01T00:00:00Z", PID: "p1", Kind: "survey_answer", Text: "ignored kind"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := NewReconstructor(st).Reconstruct("p1")
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(got) != 1 || got[0].Content != "kept" {
		t.Fatalf("got %+v, want single kept user turn", got)
	}
}

func TestReconstructToleratesCorruptLine(t *testing.T) {
	st := newStore(t)
	if err := st.Append(storage.UserTurn("p1", "A")); err != nil {
		t.Fatalf("append: %v", err)
	}
	f, err := os.OpenFile(st.Path("p1"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("not json at all\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()
	if err := st.Append(storage.AssistantTurn("p1", "B")); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := NewReconstructor(st).Reconstruct("p1")
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	want := []llm.Message{
		{Role: "user", Content: "A"},
		{Role: "assistant", Content: "B"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestReconstructNoLog(t *testing.T) {
	got, err := NewReconstructor(newStore(t)).Reconstruct("nobody")
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty history, got %+v", got)
	}
}
