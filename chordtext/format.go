package chordtext

import (
	"strings"

	"github.com/vsariola/chordgrid"
)

// Format renders grid sections as text, barsPerLine bars per row.
func Format(sections []*chordgrid.Section, barsPerLine int) string {
	return FromSections(sections, barsPerLine).Format()
}

// Format renders the sheet. Sections are separated by a blank line.
func (s *Sheet) Format() string {
	var b strings.Builder
	for i := range s.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		ss := &s.Sections[i]
		b.WriteString("= ")
		b.WriteString(ss.Name)
		b.WriteString("\n")
		for _, row := range ss.Rows {
			b.WriteString(row.String())
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (r Row) String() string {
	if len(r) == 0 {
		return ""
	}
	parts := make([]string, len(r))
	for i, c := range r {
		parts[i] = c.String()
	}
	return "| " + strings.Join(parts, " | ") + " |"
}
