package chordtext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/vsariola/chordgrid"
)

var rowLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "RepeatOpen", Pattern: `\|\|:`},
	{Name: "RepeatClose", Pattern: `:\|\|`},
	{Name: "Pipe", Pattern: `\|`},
	{Name: "Semi", Pattern: `;`},
	{Name: "Open", Pattern: `\(`},
	{Name: "Close", Pattern: `\)(?:[xX×]\d+)?`},
	{Name: "Word", Pattern: `[^\s|;()]+(?:\([^\s|;()]*\)[^\s|;()]*)*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type (
	rowAST struct {
		Items []*itemAST `parser:"@@*"`
	}

	itemAST struct {
		Pipe  bool      `parser:"@Pipe"`
		Semi  bool      `parser:"| @Semi"`
		Group *groupAST `parser:"| @@"`
		Word  string    `parser:"| @Word | @RepeatOpen | @RepeatClose"`
	}

	groupAST struct {
		Tokens []string `parser:"Open ( @Word | @Semi | @RepeatOpen | @RepeatClose )*"`
		Close  string   `parser:"@Close"`
	}
)

var rowParser = participle.MustBuild[rowAST](
	participle.Lexer(rowLexer),
	participle.Elide("Whitespace"),
)

var (
	headerRe = regexp.MustCompile(`^(?:\(\d+\)\s*)?[=-]\s*(.*)$`)
	ruleRe   = regexp.MustCompile(`^[=-]{2,}$`)
	timesRe  = regexp.MustCompile(`^[xX×](\d+)$`)
	chordRe  = regexp.MustCompile(`^(?:\|\|:)?[A-G]`)
)

// maxRepeat bounds the expansion of "(...)xN" groups.
const maxRepeat = 64

// holdTokens are the tokens of a pipe-less row that are musical even though
// they do not start with a chord root.
var holdTokens = map[string]bool{
	".": true, "%": true, "%%": true, "/": true, "r1": true, "r2": true, "||:": true, ":||": true,
}

// Parse converts text to grid sections with fresh ids, using the time
// signature ts for every section. Lines that cannot be understood are
// skipped and reported as warnings. If the text contains no section at all,
// Parse returns ErrNoSections and no sections.
func Parse(text string, ts chordgrid.TimeSignature) ([]*chordgrid.Section, []Warning, error) {
	sheet, warnings := ParseSheet(text)
	if len(sheet.Sections) == 0 {
		return nil, warnings, ErrNoSections
	}
	return sheet.Build(ts), warnings, nil
}

// ParseSheet parses text into the intermediate form.
func ParseSheet(text string) (*Sheet, []Warning) {
	sheet := &Sheet{}
	var warnings []Warning
	var cur *SheetSection
	for n, line := range strings.Split(text, "\n") {
		lineNo := n + 1
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		switch {
		case line == "", strings.HasPrefix(line, "#"), ruleRe.MatchString(line):
			continue
		case headerRe.MatchString(line):
			name := headerRe.FindStringSubmatch(line)[1]
			sheet.Sections = append(sheet.Sections, SheetSection{Name: strings.TrimSpace(name)})
			cur = &sheet.Sections[len(sheet.Sections)-1]
			continue
		}
		row, ok, err := parseRow(line)
		if err != nil {
			warnings = append(warnings, Warning{lineNo, err.Error()})
			continue
		}
		if !ok {
			warnings = append(warnings, Warning{lineNo, fmt.Sprintf("not a chord row: %q", line)})
			continue
		}
		if cur == nil {
			sheet.Sections = append(sheet.Sections, SheetSection{Name: DefaultSectionName})
			cur = &sheet.Sections[len(sheet.Sections)-1]
		}
		if len(row) > 0 {
			cur.Rows = append(cur.Rows, row)
		}
	}
	return sheet, warnings
}

// parseRow parses a single chord row. ok is false if a pipe-less line does
// not look like chords at all, e.g. a line of lyrics.
func parseRow(line string) (row Row, ok bool, err error) {
	ast, err := rowParser.ParseString("", line)
	if err != nil {
		return nil, false, err
	}
	items := ast.Items
	for _, it := range items {
		if it.Pipe {
			return pipeRow(items)
		}
	}
	if !chordLike(items) {
		return nil, false, nil
	}
	return freeRow(items)
}

func pipeRow(items []*itemAST) (Row, bool, error) {
	var segments [][]*itemAST
	var seg []*itemAST
	for _, it := range items {
		if it.Pipe {
			segments = append(segments, seg)
			seg = nil
			continue
		}
		seg = append(seg, it)
	}
	segments = append(segments, seg)
	if len(segments[0]) == 0 {
		segments = segments[1:]
	}
	if len(segments) > 0 && len(segments[len(segments)-1]) == 0 {
		segments = segments[:len(segments)-1]
	}
	var row Row
	for _, seg := range segments {
		cells, err := pipeCells(seg)
		if err != nil {
			return nil, false, err
		}
		row = append(row, cells...)
	}
	return row, true, nil
}

// pipeCells turns the items between two pipes into cells: normally one,
// but a repeat group yields one cell per repetition.
func pipeCells(seg []*itemAST) ([]Cell, error) {
	var cells []Cell
	var tokens []string
	for i := 0; i < len(seg); i++ {
		it := seg[i]
		if it.Group == nil {
			tokens = append(tokens, it.text())
			continue
		}
		times, err := it.Group.times()
		if err != nil {
			return nil, err
		}
		if times == 0 && i+1 < len(seg) {
			if n, ok := timesWord(seg[i+1].Word); ok {
				times = n
				i++
			}
		}
		if times == 0 {
			for _, lit := range it.Group.literal() {
				tokens = append(tokens, lit.text())
			}
			continue
		}
		c := cellOfTokens(it.Group.Tokens)
		for range times {
			cells = append(cells, c)
		}
	}
	if len(tokens) > 0 || len(cells) == 0 {
		cells = append([]Cell{cellOfTokens(tokens)}, cells...)
	}
	return cells, nil
}

// freeRow handles rows without pipes: every chord starts a bar, "." holds
// the previous one and ";" moves to the next chord slot of the bar.
func freeRow(items []*itemAST) (Row, bool, error) {
	var row Row
	if err := appendFree(&row, items); err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func appendFree(row *Row, items []*itemAST) error {
	last, next := 0, 0
	for i := 0; i < len(items); i++ {
		it := items[i]
		switch {
		case it.Semi:
			if len(*row) > 0 {
				next = min(last+1, 2)
			}
		case it.Group != nil:
			times, err := it.Group.times()
			if err != nil {
				return err
			}
			if times == 0 && i+1 < len(items) {
				if n, ok := timesWord(items[i+1].Word); ok {
					times = n
					i++
				}
			}
			if times == 0 {
				if err := appendFree(row, it.Group.literal()); err != nil {
					return err
				}
				last, next = 0, 0
				continue
			}
			inner, err := groupItems(it.Group)
			if err != nil {
				return err
			}
			for range times {
				if err := appendFree(row, inner); err != nil {
					return err
				}
			}
			last, next = 0, 0
		case it.Word == ".":
			if len(*row) == 0 {
				*row = append(*row, Cell{})
			}
			next = 0
		case next > 0:
			(*row)[len(*row)-1][next] = it.Word
			last, next = next, 0
		default:
			*row = append(*row, Cell{it.Word})
			last = 0
		}
	}
	return nil
}

func groupItems(g *groupAST) ([]*itemAST, error) {
	ast, err := rowParser.ParseString("", strings.Join(g.Tokens, " "))
	if err != nil {
		return nil, err
	}
	return ast.Items, nil
}

func chordLike(items []*itemAST) bool {
	for _, it := range items {
		if it.Group != nil {
			for _, t := range it.Group.Tokens {
				if chordRe.MatchString(t) || holdTokens[t] {
					return true
				}
			}
			continue
		}
		if chordRe.MatchString(it.Word) || (holdTokens[it.Word] && it.Word != ".") {
			return true
		}
	}
	return false
}

// cellOfTokens splits the tokens of a cell on ";" into chord slots. Extra
// slots are merged into the last one.
func cellOfTokens(tokens []string) Cell {
	var c Cell
	slot := 0
	for _, t := range tokens {
		if t == ";" {
			if slot < len(c)-1 {
				slot++
			}
			continue
		}
		c[slot] = strings.TrimSpace(c[slot] + " " + t)
	}
	for i := range c {
		if c[i] == "." {
			c[i] = ""
		}
	}
	return c
}

func (it *itemAST) text() string {
	switch {
	case it.Pipe:
		return "|"
	case it.Semi:
		return ";"
	}
	return it.Word
}

// literal returns the items of a group without a repeat count, with the
// parentheses kept on its first and last word, so that a chord written as
// "(C)" stays "(C)".
func (g *groupAST) literal() []*itemAST {
	items := make([]*itemAST, 0, len(g.Tokens))
	for _, t := range g.Tokens {
		if t == ";" {
			items = append(items, &itemAST{Semi: true})
			continue
		}
		items = append(items, &itemAST{Word: t})
	}
	if len(items) == 0 || items[0].Semi {
		items = append([]*itemAST{{Word: "("}}, items...)
	} else {
		items[0].Word = "(" + items[0].Word
	}
	if last := items[len(items)-1]; last.Semi {
		items = append(items, &itemAST{Word: ")"})
	} else {
		last.Word += ")"
	}
	return items
}

func (g *groupAST) times() (int, error) {
	if len(g.Close) <= 1 {
		return 0, nil
	}
	_, digits, _ := strings.Cut(strings.NewReplacer("X", "x", "×", "x").Replace(g.Close), "x")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("bad repeat count %q: %w", g.Close, err)
	}
	if n < 1 || n > maxRepeat {
		return 0, fmt.Errorf("repeat count %d out of range 1..%d", n, maxRepeat)
	}
	return n, nil
}

func timesWord(w string) (int, bool) {
	m := timesRe.FindStringSubmatch(w)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > maxRepeat {
		return 0, false
	}
	return n, true
}
