package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vsariola/chordgrid"
)

var (
	accent     = lipgloss.Color("#00ff9f")
	dim        = lipgloss.Color("#6e7681")
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	helpStyle  = lipgloss.NewStyle().Foreground(dim)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1).Width(14)
)

func newShowCmd(a *app) *cobra.Command {
	var notes bool
	cmd := &cobra.Command{
		Use:   "show <song>",
		Short: "Print a song as a table of bars",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.newSession(cmd.ErrOrStderr())
			if err := s.open(args[0]); err != nil {
				return err
			}
			renderSong(cmd.OutOrStdout(), s.model.Song(), s.model.BarsPerLine().Value(), notes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&notes, "notes", false, "show the duration tallies of all bars")
	return cmd
}

func renderSong(w io.Writer, song chordgrid.Song, barsPerLine int, notes bool) {
	title := song.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	if song.Artist != "" {
		fmt.Fprintln(w, song.Artist)
	}
	info := fmt.Sprintf("%d BPM  %s", song.Tempo, song.TimeSignature)
	if song.Key != "" {
		info = "Key " + song.Key + "  " + info
	}
	if song.Capo > 0 {
		info += fmt.Sprintf("  Capo %d", song.Capo)
	}
	fmt.Fprintln(w, helpStyle.Render(info))
	for _, sec := range song.Sections {
		label := sec.Name
		if sec.TimeSignature != song.TimeSignature {
			label += " " + helpStyle.Render(sec.TimeSignature.String())
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, labelStyle.Render(label))
		if len(sec.Bars) == 0 {
			fmt.Fprintln(w, helpStyle.Render("(no bars)"))
			continue
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(dim)).
			BorderRow(true).
			StyleFunc(func(row, col int) lipgloss.Style { return cellStyle })
		var row []string
		for i := range sec.Bars {
			row = append(row, barCell(&sec.Bars[i], sec, notes))
			if len(row) == barsPerLine {
				t.Row(row...)
				row = nil
			}
		}
		if len(row) > 0 {
			t.Row(row...)
		}
		fmt.Fprintln(w, t.String())
	}
}

// barCell renders the marks, the chords and optionally the tally of a bar on
// separate lines.
func barCell(b *chordgrid.Bar, sec *chordgrid.Section, notes bool) string {
	var lines []string
	var marks []string
	if b.Ending != nil && b.Ending.Start {
		marks = append(marks, b.Ending.Group.String())
	}
	marks = append(marks, b.Signs.Labels()...)
	if b.Fermata {
		marks = append(marks, "𝄐")
	}
	if ts := b.EffectiveTimeSignature(sec.TimeSignature); ts != sec.TimeSignature {
		marks = append(marks, ts.String())
	}
	if len(marks) > 0 {
		lines = append(lines, helpStyle.Render(strings.Join(marks, " ")))
	}
	var chords []string
	for _, c := range b.Slots() {
		if c != "" {
			chords = append(chords, c)
		}
	}
	if len(chords) == 0 {
		chords = []string{"."}
	}
	lines = append(lines, strings.Join(chords, " ; "))
	if (notes || sec.ShowNoteTypes) && len(b.NoteTypes) > 0 {
		lines = append(lines, helpStyle.Render(b.NoteSymbol()))
	}
	if sec.ShowMelody && b.Melody != "" {
		lines = append(lines, helpStyle.Render(b.Melody))
	}
	return strings.Join(lines, "\n")
}
