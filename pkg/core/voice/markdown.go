package voice

import (
	"regexp"
	"strings"
)

var (
	codeFenceRe  = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	quoteRe      = regexp.MustCompile(`(?m)^>\s?`)
	emphasisRe   = regexp.MustCompile(`[*_~]{1,3}([^*_~]+)[*_~]{1,3}`)
	spacesRe     = regexp.MustCompile(`[ \t]+`)
)

// StripMarkdown reduces markdown-formatted text to plain prose suitable for
// speech synthesis. Code blocks are dropped entirely; reading code aloud is
// useless.
func StripMarkdown(text string) string {
	out := codeFenceRe.ReplaceAllString(text, "")
	out = inlineCodeRe.ReplaceAllString(out, "$1")
	out = imageRe.ReplaceAllString(out, "$1")
	out = linkRe.ReplaceAllString(out, "$1")
	out = headingRe.ReplaceAllString(out, "")
	out = bulletRe.ReplaceAllString(out, "")
	out = quoteRe.ReplaceAllString(out, "")
	out = emphasisRe.ReplaceAllString(out, "$1")
	out = spacesRe.ReplaceAllString(out, " ")

	lines := strings.Split(out, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
