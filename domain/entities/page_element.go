package entities

import "strings"

// ElementSelector is the selector set enumerated every cycle
const ElementSelector = "p, button, input, a, img"

// HeadingSelector matches section headings nested inside links
const HeadingSelector = "h1, h2, h3, h4, h5, h6"

// ElementRole is the summarizer's view of what an element is
type ElementRole string

const (
	RoleButton    ElementRole = "button"
	RoleParagraph ElementRole = "paragraph"
	RoleImage     ElementRole = "image"
	RoleLink      ElementRole = "link"
	RoleInput     ElementRole = "input"
	RoleOther     ElementRole = "other"
)

// RoleFromTag maps a DOM tag name to a role. Matching ignores case
// because WebDriver reports lowercase tag names.
func RoleFromTag(tag string) ElementRole {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case "BUTTON":
		return RoleButton
	case "P":
		return RoleParagraph
	case "IMG":
		return RoleImage
	case "A":
		return RoleLink
	case "INPUT":
		return RoleInput
	default:
		return RoleOther
	}
}

// SummaryLine is one tagged line of a page summary
type SummaryLine struct {
	ID   int
	Role ElementRole
	Text string // the element's visible label
	Line string // rendered markup
}

// Summary is the markup describing one element enumeration
type Summary struct {
	Lines []SummaryLine
}

// String joins the rendered lines with newlines
func (s Summary) String() string {
	out := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Line
	}
	return strings.Join(out, "\n")
}

// Line returns the summary line emitted for slot id, if any
func (s Summary) Line(id int) (SummaryLine, bool) {
	for _, l := range s.Lines {
		if l.ID == id {
			return l, true
		}
	}
	return SummaryLine{}, false
}
