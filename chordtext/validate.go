package chordtext

import (
	"fmt"
	"strings"
	"unicode"
)

const allowedPunct = "#()%|:;.,'\"=-/+*^°øΔ×~_!?[]<>"

// Validate checks text before it is converted and returns one warning per
// problem found: characters that do not belong to chord notation,
// unbalanced parentheses, rows the parser rejects and a missing section
// header. An empty result means the text converts cleanly.
func Validate(text string) []Warning {
	var warnings []Warning
	hasHeader := false
	for n, line := range strings.Split(text, "\n") {
		lineNo := n + 1
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") || ruleRe.MatchString(line) {
			continue
		}
		if headerRe.MatchString(line) {
			hasHeader = true
			continue
		}
		if bad := invalidChars(line); len(bad) > 0 {
			warnings = append(warnings, Warning{lineNo, fmt.Sprintf("potentially invalid characters: %s", strings.Join(bad, ", "))})
		}
		if strings.Count(line, "(") != strings.Count(line, ")") {
			warnings = append(warnings, Warning{lineNo, "unmatched parentheses"})
			continue
		}
		if _, ok, err := parseRow(line); err != nil {
			warnings = append(warnings, Warning{lineNo, err.Error()})
		} else if !ok {
			warnings = append(warnings, Warning{lineNo, "not a chord row"})
		}
	}
	if !hasHeader && strings.TrimSpace(text) != "" {
		warnings = append(warnings, Warning{0, `no section headers found, use "= Section Name" to create sections`})
	}
	return warnings
}

func invalidChars(line string) []string {
	var bad []string
	seen := map[rune]bool{}
	for _, r := range line {
		ok := r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) ||
			unicode.IsSpace(r) || strings.ContainsRune(allowedPunct, r)
		if !ok && !seen[r] {
			seen[r] = true
			bad = append(bad, string(r))
		}
	}
	return bad
}
