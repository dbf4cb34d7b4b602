// Package sanitizer derives plain text from rendered HTML email bodies.
package sanitizer

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once

	// Closing block tags and <br> end a line in the plain text version.
	blockEnd   = regexp.MustCompile(`(?i)(<br\s*/?>|</(p|div|h[1-6]|li|tr|table|blockquote|pre)>)`)
	listItem   = regexp.MustCompile(`(?i)<li[^>]*>`)
	anchor     = regexp.MustCompile(`(?is)<a\s[^>]*href\s*=\s*"([^"]+)"[^>]*>(.*?)</a>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

func initPolicies() {
	initOnce.Do(func() {
		// StrictPolicy strips ALL HTML. Head and title content is never body text.
		strictPolicy = bluemonday.StrictPolicy()
		strictPolicy.SkipElementsContent("head", "title", "style", "script")
	})
}

// PlainText converts an HTML document to readable plain text.
// Links keep their target as "label (url)", list items become "- item",
// block elements end lines and runs of blank lines collapse to one.
func PlainText(s string) string {
	initPolicies()

	s = anchor.ReplaceAllStringFunc(s, func(m string) string {
		parts := anchor.FindStringSubmatch(m)
		href, label := parts[1], parts[2]
		text := strings.TrimSpace(strictPolicy.Sanitize(label))
		if text == "" || text == href || strings.HasPrefix(href, "#") {
			return label
		}
		return label + " (" + href + ")"
	})
	s = listItem.ReplaceAllString(s, "- ")
	s = blockEnd.ReplaceAllString(s, "$0\n")

	text := html.UnescapeString(strictPolicy.Sanitize(s))

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
