package logbuf

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func entryAt(t time.Time, level, msg string) Entry {
	return Entry{Time: t, Level: level, Message: msg}
}

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing(3)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r.Write(entryAt(base.Add(time.Duration(i)*time.Second), "INFO", string(rune('a'+i))))
	}

	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	got := r.Query(Filter{})
	if len(got) != 3 || got[0].Message != "c" || got[2].Message != "e" {
		t.Errorf("Query: got %+v", got)
	}
}

func TestRingQueryFilters(t *testing.T) {
	r := NewRing(10)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	r.Write(entryAt(base, "DEBUG", "d1"))
	r.Write(entryAt(base.Add(time.Second), "INFO", "i1"))
	r.Write(entryAt(base.Add(2*time.Second), "ERROR", "e1"))

	got := r.Query(Filter{MinLevel: slog.LevelInfo})
	if len(got) != 2 {
		t.Fatalf("Query(min=info): got %d entries", len(got))
	}

	got = r.Query(Filter{Since: base.Add(2 * time.Second)})
	if len(got) != 1 || got[0].Message != "e1" {
		t.Errorf("Query(since): got %+v", got)
	}

	got = r.Query(Filter{Limit: 1})
	if len(got) != 1 || got[0].Message != "e1" {
		t.Errorf("Query(limit): got %+v", got)
	}
}

func TestHandlerCapturesAllLevels(t *testing.T) {
	ring := NewRing(10)
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})
	logger := slog.New(NewHandler(inner, ring))

	logger.Debug("low level", "k", "v")
	logger.Error("high level")

	got := ring.Query(Filter{})
	if len(got) != 2 {
		t.Fatalf("Query: got %d entries, want both levels captured", len(got))
	}
	if got[0].Attrs["k"] != "v" {
		t.Errorf("Query: attrs = %v", got[0].Attrs)
	}
}

func TestHandlerGroupsAndErrors(t *testing.T) {
	ring := NewRing(10)
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewHandler(inner, ring)).WithGroup("store").With("component", "sqlite")

	logger.Error("save failed", "error", context.DeadlineExceeded)

	got := ring.Query(Filter{})
	if len(got) != 1 {
		t.Fatalf("Query: got %d entries", len(got))
	}
	if got[0].Attrs["store.component"] != "sqlite" {
		t.Errorf("Query: attrs = %v", got[0].Attrs)
	}
	if got[0].Attrs["store.error"] != context.DeadlineExceeded.Error() {
		t.Errorf("Query: error attr = %v", got[0].Attrs["store.error"])
	}
}
