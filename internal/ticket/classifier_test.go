package ticket

import (
	"testing"

	"github.com/deskd-io/deskd/pkg/protocol"
)

func TestClassifyOutage(t *testing.T) {
	c := Classify("Server is down and entire team can't work")
	if c.Priority != protocol.PriorityCritical {
		t.Errorf("Classify: priority = %s, want Critical", c.Priority)
	}
	if c.Category != protocol.CategoryNetwork {
		t.Errorf("Classify: category = %s, want Network", c.Category)
	}
}

func TestClassifyDefaultMedium(t *testing.T) {
	c := Classify("Laptop screen flickering")
	if c.Priority != protocol.PriorityMedium {
		t.Errorf("Classify: priority = %s, want Medium", c.Priority)
	}
	if c.Category != protocol.CategoryHardware {
		t.Errorf("Classify: category = %s, want Hardware", c.Category)
	}
}

func TestClassifyCategories(t *testing.T) {
	cases := []struct {
		desc string
		want protocol.TicketCategory
	}{
		{"I forgot my password and I'm locked out", protocol.CategoryAccount},
		{"Outlook keeps asking for my mailbox settings", protocol.CategoryEmail},
		{"Received a phishing email, looks like malware", protocol.CategorySecurity},
		{"Cannot install the new accounting program", protocol.CategorySoftware},
		{"My computer is slow and keeps freezing", protocol.CategoryPerformance},
		{"Something feels off today", protocol.CategoryGeneral},
	}
	for _, tc := range cases {
		if got := Classify(tc.desc).Category; got != tc.want {
			t.Errorf("Classify(%q): category = %s, want %s", tc.desc, got, tc.want)
		}
	}
}

func TestClassifyPriorityFirstMatchWins(t *testing.T) {
	// Contains both an urgent phrase and a low-priority phrase; the
	// higher rule is evaluated first.
	c := Classify("urgent but honestly no rush")
	if c.Priority != protocol.PriorityUrgent {
		t.Errorf("Classify: priority = %s, want Urgent", c.Priority)
	}
}

func TestClassifyLow(t *testing.T) {
	c := Classify("Question about the screensaver, no rush")
	if c.Priority != protocol.PriorityLow {
		t.Errorf("Classify: priority = %s, want Low", c.Priority)
	}
}

func TestClassifyConfidence(t *testing.T) {
	vague := Classify("help")
	specific := Classify("vpn connection to the network server keeps dropping")
	if vague.Confidence >= specific.Confidence {
		t.Errorf("Classify: vague confidence %.2f >= specific %.2f", vague.Confidence, specific.Confidence)
	}
	if specific.Confidence > 0.9 {
		t.Errorf("Classify: confidence %.2f exceeds cap", specific.Confidence)
	}
}
