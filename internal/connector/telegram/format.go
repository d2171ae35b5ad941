package telegram

import (
	"regexp"
	"strings"
)

var (
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// ToHTML converts the assistant's lightweight Markdown (bold, inline code,
// links) to Telegram's HTML subset. All other text is HTML-escaped.
func ToHTML(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = inlineToHTML(line)
	}
	return strings.Join(lines, "\n")
}

func inlineToHTML(line string) string {
	// Protect inline code spans before escaping
	type span struct {
		placeholder string
		html        string
	}
	var spans []span
	counter := 0

	line = reInlineCode.ReplaceAllStringFunc(line, func(match string) string {
		inner := reInlineCode.FindStringSubmatch(match)[1]
		placeholder := "\x00C" + string(rune('A'+counter)) + "\x00"
		counter++
		spans = append(spans, span{placeholder, "<code>" + escapeHTML(inner) + "</code>"})
		return placeholder
	})

	line = escapeHTML(line)
	line = reBold.ReplaceAllString(line, "<b>$1</b>")
	line = reLink.ReplaceAllString(line, `<a href="$2">$1</a>`)

	for _, s := range spans {
		line = strings.Replace(line, s.placeholder, s.html, 1)
	}
	return line
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// StripMarkdown removes formatting markers, returning plain text.
func StripMarkdown(text string) string {
	result := reInlineCode.ReplaceAllString(text, "$1")
	result = reBold.ReplaceAllString(result, "$1")
	result = reLink.ReplaceAllString(result, "$1 ($2)")
	return result
}
