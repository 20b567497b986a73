package export

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/vsariola/chordgrid"
	"github.com/vsariola/chordgrid/chordtext"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const templateExt = ".tmpl"

var ErrUnknownFormat = errors.New("export: unknown sheet format")

// Sheets renders printable chord sheets with text/template. Every template
// file named <format>.tmpl adds a format; templates get the sprig functions.
type Sheets struct {
	tmpl *template.Template
}

type (
	sheetData struct {
		Title         string
		Artist        string
		Key           string
		Tempo         int
		Capo          int
		TimeSignature string
		BarsPerLine   int
		Sections      []sheetSection
	}

	sheetSection struct {
		Name          string
		TimeSignature string
		ShowMelody    bool
		Rows          [][]sheetBar
		Comments      []string
	}

	sheetBar struct {
		Number  int
		Chords  string
		Marks   []string
		Notes   string
		Melody  string
		Comment string
	}
)

// NewSheets returns the built in formats: markdown, html and text.
func NewSheets() (*Sheets, error) {
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*"+templateExt)
	if err != nil {
		return nil, fmt.Errorf("export: could not parse built in templates: %w", err)
	}
	return &Sheets{tmpl: tmpl}, nil
}

// LoadSheets adds the templates matching a glob pattern, which may use "**",
// to the built in ones. A file with the name of a built in format replaces
// it.
func LoadSheets(pattern string) (*Sheets, error) {
	s, err := NewSheets()
	if err != nil {
		return nil, err
	}
	files, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("export: bad template pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("export: no templates match %q", pattern)
	}
	if _, err := s.tmpl.ParseFiles(files...); err != nil {
		return nil, fmt.Errorf(`export: could not parse templates "%v": %w`, pattern, err)
	}
	return s, nil
}

// Formats lists the available formats in alphabetical order.
func (s *Sheets) Formats() []string {
	var ret []string
	for _, t := range s.tmpl.Templates() {
		if name, ok := strings.CutSuffix(t.Name(), templateExt); ok {
			ret = append(ret, name)
		}
	}
	slices.Sort(ret)
	return ret
}

// Render writes the song as a sheet of the given format, barsPerLine bars
// to a row.
func (s *Sheets) Render(w io.Writer, format string, song chordgrid.Song, barsPerLine int) error {
	t := s.tmpl.Lookup(format + templateExt)
	if t == nil {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := t.Execute(w, newSheetData(song, barsPerLine)); err != nil {
		return fmt.Errorf(`export: could not execute template "%v": %w`, format, err)
	}
	return nil
}

func newSheetData(song chordgrid.Song, barsPerLine int) sheetData {
	if barsPerLine < 1 {
		barsPerLine = chordtext.DefaultBarsPerLine
	}
	d := sheetData{
		Title:         song.Title,
		Artist:        song.Artist,
		Key:           song.Key,
		Tempo:         song.Tempo,
		Capo:          song.Capo,
		TimeSignature: song.TimeSignature.String(),
		BarsPerLine:   barsPerLine,
	}
	for _, sec := range song.Sections {
		ss := sheetSection{
			Name:          sec.Name,
			TimeSignature: sec.TimeSignature.String(),
			ShowMelody:    sec.ShowMelody,
		}
		var row []sheetBar
		for i := range sec.Bars {
			b := &sec.Bars[i]
			sb := sheetBar{
				Number:  i + 1,
				Chords:  barChords(b),
				Marks:   barMarks(b, sec.TimeSignature),
				Comment: b.Comment,
			}
			if sec.ShowNoteTypes {
				sb.Notes = b.NoteSymbol()
			}
			if sec.ShowMelody {
				sb.Melody = b.Melody
			}
			if b.Comment != "" {
				ss.Comments = append(ss.Comments, strconv.Itoa(i+1)+": "+b.Comment)
			}
			row = append(row, sb)
			if len(row) == barsPerLine {
				ss.Rows = append(ss.Rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			ss.Rows = append(ss.Rows, row)
		}
		d.Sections = append(d.Sections, ss)
	}
	return d
}

// barChords lists the chords and rests of a bar in playing order.
func barChords(b *chordgrid.Bar) string {
	var parts []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	add(b.Chord)
	if b.Rest != nil {
		add(b.Rest.String())
	}
	add(b.ChordAfter)
	if b.TrailingRest != nil {
		add(b.TrailingRest.String())
	}
	add(b.ChordEnd)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, " ")
}

// barMarks returns the ending, time signature, sign and fermata marks of a
// bar.
func barMarks(b *chordgrid.Bar, section chordgrid.TimeSignature) []string {
	var ret []string
	if b.Ending != nil && b.Ending.Start {
		ret = append(ret, b.Ending.Group.String())
	}
	if ts := b.EffectiveTimeSignature(section); ts != section {
		ret = append(ret, ts.String())
	}
	ret = append(ret, b.Signs.Labels()...)
	if b.Fermata {
		ret = append(ret, "𝄐")
	}
	return ret
}
