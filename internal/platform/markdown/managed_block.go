package markdown

import "strings"

// Block delimits a generated region inside a hand-edited note.
type Block struct {
	Start string
	End   string
}

// Replace swaps the region between the markers for generated, or appends a
// new region when the markers are absent. Text outside the markers is kept.
func (b Block) Replace(body, generated string) string {
	section := b.Start + "\n" + generated + "\n" + b.End
	start := strings.Index(body, b.Start)
	end := strings.Index(body, b.End)
	if start >= 0 && end > start {
		return body[:start] + section + body[end+len(b.End):]
	}
	switch {
	case strings.TrimSpace(body) == "":
		return section + "\n"
	case strings.HasSuffix(body, "\n"):
		return body + "\n" + section + "\n"
	default:
		return body + "\n\n" + section + "\n"
	}
}
