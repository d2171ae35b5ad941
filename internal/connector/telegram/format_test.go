package telegram

import "testing"

func TestToHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"bold", "status: **Open**", "status: <b>Open</b>"},
		{"code", "run `ipconfig /flushdns` first", "run <code>ipconfig /flushdns</code> first"},
		{"escapes", "use a < b && c > d", "use a &lt; b &amp;&amp; c &gt; d"},
		{"code not escaped twice", "`a < b`", "<code>a &lt; b</code>"},
		{"link", "see [the portal](https://example.com/reset)", `see <a href="https://example.com/reset">the portal</a>`},
		{"multiline", "line one\n**line two**", "line one\n<b>line two</b>"},
	}
	for _, tc := range cases {
		if got := ToHTML(tc.in); got != tc.want {
			t.Errorf("%s: ToHTML(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestStripMarkdown(t *testing.T) {
	in := "Reset via **Settings**, then run `whoami`, docs at [portal](https://example.com)"
	want := "Reset via Settings, then run whoami, docs at portal (https://example.com)"
	if got := StripMarkdown(in); got != want {
		t.Errorf("StripMarkdown = %q, want %q", got, want)
	}
}
