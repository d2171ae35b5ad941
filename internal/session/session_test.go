package session

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/deskd-io/deskd/pkg/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetOrCreate(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())

	sess := m.GetOrCreate("s1")
	if sess.ID != "s1" {
		t.Fatalf("ID = %q, want s1", sess.ID)
	}
	if sess.State != protocol.StateIdle {
		t.Errorf("State = %q, want idle", sess.State)
	}

	again := m.GetOrCreate("s1")
	if again != sess {
		t.Error("second GetOrCreate returned a different session")
	}
}

func TestAppendTurnWindow(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger(), WithMaxTurns(5))
	sess := m.GetOrCreate("s1")

	for i := 0; i < 8; i++ {
		m.AppendTurn(sess, protocol.RoleUser, fmt.Sprintf("message %d", i))
	}
	if len(sess.Turns) != 5 {
		t.Fatalf("turns = %d, want 5", len(sess.Turns))
	}
	if sess.Turns[0].Content != "message 3" {
		t.Errorf("oldest retained = %q, want %q", sess.Turns[0].Content, "message 3")
	}
	if sess.Turns[0].ID == "" {
		t.Error("turn ID not set")
	}
}

func TestSetTopicTransitionsIdle(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())
	sess := m.GetOrCreate("s1")

	m.SetTopic(sess, "vpn setup", []protocol.Citation{{ArticleID: "kb002"}})
	if sess.State != protocol.StateAwaitingFollowup {
		t.Errorf("State = %q, want awaiting_followup", sess.State)
	}
	if sess.LastTopic != "vpn setup" {
		t.Errorf("LastTopic = %q", sess.LastTopic)
	}
}

func TestDetectFollowup(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())
	sess := m.GetOrCreate("s1")

	// First message is never a follow-up.
	if ok, _, _ := m.DetectFollowup(sess, "that didn't work"); ok {
		t.Fatal("follow-up detected on empty session")
	}

	m.AppendTurn(sess, protocol.RoleUser, "how do I reset my password")
	m.SetTopic(sess, "reset password", nil)
	m.AppendTurn(sess, protocol.RoleAssistant, "Try the self-service portal.")

	ok, conf, intent := m.DetectFollowup(sess, "that didn't work for me")
	if !ok {
		t.Fatal("follow-up not detected")
	}
	if intent != IntentDidntWork {
		t.Errorf("intent = %q, want %q", intent, IntentDidntWork)
	}
	if conf != 0.8 {
		t.Errorf("confidence = %v, want 0.8", conf)
	}

	// A non-phrase message is a fresh query.
	if ok, _, _ := m.DetectFollowup(sess, "my printer is jammed"); ok {
		t.Error("fresh query misclassified as follow-up")
	}

	// Last turn from the user (mid-processing) blocks follow-up detection.
	m.AppendTurn(sess, protocol.RoleUser, "ok")
	if ok, _, _ := m.DetectFollowup(sess, "still not working"); ok {
		t.Error("follow-up detected without a preceding assistant turn")
	}
}

func TestDetectFollowupTopicWindow(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger(), WithTopicWindow(2))
	sess := m.GetOrCreate("s1")

	m.AppendTurn(sess, protocol.RoleUser, "email sync is broken")
	m.SetTopic(sess, "email sync", nil)
	m.AppendTurn(sess, protocol.RoleAssistant, "Re-add the account.")

	// Push the topic outside the recency window.
	m.AppendTurn(sess, protocol.RoleUser, "thanks")
	m.AppendTurn(sess, protocol.RoleAssistant, "You're welcome.")

	if ok, _, _ := m.DetectFollowup(sess, "still not working"); ok {
		t.Error("stale topic still matched as follow-up")
	}
}

func TestClearFlowKeepsInvariant(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())
	sess := m.GetOrCreate("s1")

	m.StartFlow(sess, &protocol.FlowState{FlowID: "wifi"})
	if sess.State != protocol.StateTroubleshooting {
		t.Fatalf("State = %q, want troubleshooting", sess.State)
	}

	m.ClearFlow(sess)
	if sess.ActiveFlow != nil {
		t.Error("flow state not cleared")
	}
	if sess.State == protocol.StateTroubleshooting {
		t.Error("still troubleshooting without an active flow")
	}
}

func TestRecordBounds(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())
	sess := m.GetOrCreate("s1")

	for i := 0; i < 8; i++ {
		m.RecordTicket(sess, fmt.Sprintf("INC2026031400%02d", i))
	}
	if len(sess.RecentTickets) != 5 {
		t.Errorf("recent tickets = %d, want 5", len(sess.RecentTickets))
	}
	if sess.RecentTickets[0] != "INC202603140007" {
		t.Errorf("newest ticket = %q", sess.RecentTickets[0])
	}

	for i := 0; i < 12; i++ {
		m.RecordSearch(sess, fmt.Sprintf("query %d", i))
	}
	if len(sess.SearchHistory) != 10 {
		t.Errorf("search history = %d, want 10", len(sess.SearchHistory))
	}
}

func TestExpireIdle(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := now
	m := NewManager(NewMemoryStore(), testLogger(),
		WithTTL(time.Hour),
		WithClock(func() time.Time { return clock }),
	)

	m.GetOrCreate("old")
	clock = now.Add(90 * time.Minute)
	m.GetOrCreate("fresh")

	removed := m.ExpireIdle(clock)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := m.Snapshot("old"); ok {
		t.Error("expired session still present")
	}
	if _, ok := m.Snapshot("fresh"); !ok {
		t.Error("fresh session swept")
	}
}

func TestStats(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())
	a := m.GetOrCreate("a")
	m.GetOrCreate("b")
	m.StartFlow(a, &protocol.FlowState{FlowID: "printer"})

	stats := m.Stats()
	if stats.Total != 2 {
		t.Fatalf("total = %d, want 2", stats.Total)
	}
	if stats.ByState[protocol.StateTroubleshooting] != 1 {
		t.Errorf("troubleshooting = %d, want 1", stats.ByState[protocol.StateTroubleshooting])
	}
	if stats.ByState[protocol.StateIdle] != 1 {
		t.Errorf("idle = %d, want 1", stats.ByState[protocol.StateIdle])
	}
}

// The sweep and diagnostics paths read sessions while the message path
// mutates them. Run both concurrently; the race detector flags any
// unsynchronized field access.
func TestConcurrentReadersAndWriters(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger(), WithTTL(time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("sess-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := m.GetOrCreate(id)
			for j := 0; j < 50; j++ {
				m.AppendTurn(sess, protocol.RoleUser, "my printer is jammed")
				m.SetTopic(sess, "printer", nil)
				m.AppendTurn(sess, protocol.RoleAssistant, "try clearing the tray")
				m.StartFlow(sess, &protocol.FlowState{FlowID: "printer"})
				m.UpdateFlow(sess, func(fs *protocol.FlowState) {
					fs.Answers = append(fs.Answers, "yes")
				})
				m.ClearFlow(sess)
				m.RecordTicket(sess, "INC202608290001")
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			m.Stats()
			m.ExpireIdle(time.Now())
			m.Snapshot("sess-0")
		}
	}()
	wg.Wait()

	if stats := m.Stats(); stats.Total != 4 {
		t.Fatalf("total = %d, want 4", stats.Total)
	}
}
