package scheduler

import (
	"sync"
	"testing"
	"time"
)

func TestAddJob(t *testing.T) {
	var mu sync.Mutex
	fired := 0

	sched := New(nil)
	err := sched.AddJob("session-sweep", "@every 1s", func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	if sched.JobCount() != 1 {
		t.Errorf("JobCount = %d", sched.JobCount())
	}

	// Start cron and wait for it to fire
	sched.cron.Start()
	time.Sleep(1500 * time.Millisecond)
	sched.cron.Stop()

	mu.Lock()
	defer mu.Unlock()
	if fired == 0 {
		t.Error("expected at least one firing")
	}
}

func TestInvalidSchedule(t *testing.T) {
	sched := New(nil)
	err := sched.AddJob("bad", "invalid-cron", func() {})
	if err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestAddJobReplacesByName(t *testing.T) {
	sched := New(nil)
	sched.AddJob("ticket-progress", "@every 1h", func() {})
	sched.AddJob("ticket-progress", "@every 2h", func() {})
	if sched.JobCount() != 1 {
		t.Errorf("JobCount = %d, want 1 after replace", sched.JobCount())
	}
}

func TestRemoveJob(t *testing.T) {
	sched := New(nil)
	sched.AddJob("session-sweep", "@every 1h", func() {})
	sched.RemoveJob("session-sweep")
	if sched.JobCount() != 0 {
		t.Errorf("JobCount = %d after remove", sched.JobCount())
	}
}
