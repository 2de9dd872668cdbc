package setname

import (
	"regexp"
	"strings"
)

const (
	maxLen          = 50
	shareLinkMarker = "t.me/addstickers/"
)

var (
	stripPattern    = regexp.MustCompile(`[^\w\s-]`)
	collapsePattern = regexp.MustCompile(`[-\s]+`)
)

// Sanitize reduces a raw set name to something safe to use as a file or
// archive-entry name. Returns "" when nothing usable remains.
func Sanitize(raw string) string {
	name := stripPattern.ReplaceAllString(raw, "")
	name = strings.TrimSpace(name)
	name = collapsePattern.ReplaceAllString(name, "_")
	if len(name) > maxLen {
		name = name[:maxLen]
	}
	return name
}

// FromText extracts a set name from free text. Share links of the form
// t.me/addstickers/<name> yield the last path segment; anything else is
// taken verbatim.
func FromText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if strings.Contains(text, shareLinkMarker) {
		text = text[strings.LastIndex(text, "/")+1:]
	}
	return Sanitize(text)
}
