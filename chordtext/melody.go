package chordtext

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vsariola/chordgrid"
)

var ErrBarCount = errors.New("melody does not match the number of bars")

// FormatMelody renders the melody of a section in number notation, one
// cell per bar, barsPerLine bars per row:
//
//	| 1 2 3 | 5 - | - | 3 2 1 |
//
// A bar without melody is written as "-".
func FormatMelody(sec *chordgrid.Section, barsPerLine int) string {
	if barsPerLine < 1 {
		barsPerLine = DefaultBarsPerLine
	}
	var b strings.Builder
	for i := 0; i < len(sec.Bars); i += barsPerLine {
		end := min(i+barsPerLine, len(sec.Bars))
		cells := make([]string, 0, end-i)
		for _, bar := range sec.Bars[i:end] {
			m := strings.Join(strings.Fields(bar.Melody), " ")
			if m == "" {
				m = "-"
			}
			cells = append(cells, m)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

// ParseMelody parses a melody block into one string per bar.
func ParseMelody(text string) []string {
	var ret []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "|")
		line = strings.TrimSuffix(line, "|")
		for _, cell := range strings.Split(line, "|") {
			m := strings.Join(strings.Fields(cell), " ")
			if m == "-" {
				m = ""
			}
			ret = append(ret, m)
		}
	}
	return ret
}

// ApplyMelody sets the melody of every bar of sec from a melody block. The
// block must have exactly one cell per bar; otherwise sec is left untouched
// and ErrBarCount is returned.
func ApplyMelody(sec *chordgrid.Section, text string) error {
	melody := ParseMelody(text)
	if len(melody) != len(sec.Bars) {
		return fmt.Errorf("%w: %d cells for %d bars", ErrBarCount, len(melody), len(sec.Bars))
	}
	for i := range sec.Bars {
		sec.Bars[i].Melody = melody[i]
	}
	return nil
}
