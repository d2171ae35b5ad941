package slackconn

import "testing"

func TestStripMention(t *testing.T) {
	got := StripMention("<@U123ABC> my vpn is down", "U123ABC")
	if got != "my vpn is down" {
		t.Errorf("StripMention = %q, want %q", got, "my vpn is down")
	}

	// No mention present
	got = StripMention("printer jam again", "U123ABC")
	if got != "printer jam again" {
		t.Errorf("StripMention = %q", got)
	}
}

func TestToMrkdwn(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "Ticket **INC202608290001** created", "Ticket *INC202608290001* created"},
		{"bold inside code untouched", "run `echo **hi**` now", "run `echo **hi**` now"},
		{"link", "see [the guide](https://example.com/kb)", "see <https://example.com/kb|the guide>"},
		{"unclosed bracket passes through", "array[0] is fine", "array[0] is fine"},
	}
	for _, tc := range cases {
		if got := ToMrkdwn(tc.in); got != tc.want {
			t.Errorf("%s: ToMrkdwn(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}
