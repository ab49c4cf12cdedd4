package voice

import "testing"

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Osmosis moves water.", "Osmosis moves water."},
		{"bold and italics", "This is **important** and _subtle_.", "This is important and subtle."},
		{"heading", "## Key idea\nWater moves.", "Key idea\nWater moves."},
		{"link", "See [this article](https://example.com) for more.", "See this article for more."},
		{"image", "![diagram](https://example.com/d.png)", "diagram"},
		{"inline code", "Use the `osmosis` term.", "Use the osmosis term."},
		{"code fence dropped", "Before\n```go\nfmt.Println(1)\n```\nAfter", "Before\nAfter"},
		{"bullets", "- first\n- second", "first\nsecond"},
		{"quote", "> cited text", "cited text"},
		{"only code", "```\nx := 1\n```", ""},
		{"empty", "", ""},
		{"whitespace", "   \n\t  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdown(tt.in); got != tt.want {
				t.Errorf("StripMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
