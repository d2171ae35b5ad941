package splitter

import (
	"strings"
	"testing"
)

func TestSplitSingleQuery(t *testing.T) {
	s := New()
	got := s.Split("How do I reset my password?")
	if len(got) != 1 {
		t.Fatalf("Split returned %d segments, want 1: %v", len(got), got)
	}
	if got[0] != "How do I reset my password?" {
		t.Errorf("segment = %q", got[0])
	}
}

func TestSplitOnConnectors(t *testing.T) {
	s := New()
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			"also",
			"My password expired. Also the VPN keeps disconnecting.",
			[]string{"My password expired.", "the VPN keeps disconnecting."},
		},
		{
			"semicolon",
			"Outlook is not syncing; the printer shows error 50.2",
			[]string{"Outlook is not syncing", "the printer shows error 50.2"},
		},
		{
			"another issue",
			"Wifi drops every hour another issue is my screen flickers constantly",
			[]string{"Wifi drops every hour", "is my screen flickers constantly"},
		},
		{
			"question marks",
			"How do I reset my password? How do I set up the VPN?",
			[]string{"How do I reset my password?", "How do I set up the VPN?"},
		},
	}
	for _, tc := range cases {
		got := s.Split(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("%s: got %d segments %v, want %d", tc.name, len(got), got, len(tc.want))
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: segment[%d] = %q, want %q", tc.name, i, got[i], tc.want[i])
			}
		}
	}
}

func TestSplitEmpty(t *testing.T) {
	s := New()
	if got := s.Split("   "); got != nil {
		t.Errorf("Split(blank) = %v, want nil", got)
	}
}

func TestSplitOverflowConcatenates(t *testing.T) {
	s := New()
	// Six independent problems; cap is four, so the tail is folded into
	// the last slot with no text dropped.
	in := "My laptop will not boot up? The printer is jammed again? Email attachments will not open? The VPN client crashes on start? My monitor flickers constantly? The shared drive is missing?"
	got := s.Split(in)
	if len(got) != 4 {
		t.Fatalf("Split returned %d segments, want 4: %v", len(got), got)
	}
	joined := strings.Join(got, " ")
	for _, phrase := range []string{"laptop", "printer", "attachments", "VPN", "monitor", "shared drive"} {
		if !strings.Contains(joined, phrase) {
			t.Errorf("text %q lost after capping", phrase)
		}
	}
	if !strings.Contains(got[3], "monitor") || !strings.Contains(got[3], "shared drive") {
		t.Errorf("overflow not folded into final slot: %q", got[3])
	}
}

func TestSplitKeepsURLsIntact(t *testing.T) {
	s := New()
	got := s.Split("I cannot reach portal.example.com from the office network")
	if len(got) != 1 {
		t.Fatalf("Split returned %d segments, want 1: %v", len(got), got)
	}
	if !strings.Contains(got[0], "portal.example.com") {
		t.Errorf("hostname split apart: %q", got[0])
	}
}

func TestSplitMergesDanglingFragments(t *testing.T) {
	s := New()
	// "and also" leaves a fragment under the minimum length, which must
	// fold into its neighbor instead of becoming its own sub-query.
	got := s.Split("The VPN keeps dropping every few minutes and also wifi")
	if len(got) != 1 {
		t.Fatalf("Split returned %d segments, want 1: %v", len(got), got)
	}
	if !strings.Contains(got[0], "wifi") {
		t.Errorf("dangling fragment dropped: %q", got[0])
	}
}

func TestSplitDeterministic(t *testing.T) {
	s := New()
	in := "Reset my password. Also fix my email sync. Plus the printer is offline."
	first := s.Split(in)
	for i := 0; i < 5; i++ {
		again := s.Split(in)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d segments, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d: segment[%d] = %q, want %q", i, j, again[j], first[j])
			}
		}
	}
}
