package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vsariola/chordgrid/editor"
	"github.com/vsariola/chordgrid/export"
)

var extFormats = map[string]string{
	".txt":  "text",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".mid":  "midi",
	".midi": "midi",
	".md":   "sheet",
	".html": "sheet",
}

func newExportCmd(a *app) *cobra.Command {
	var (
		out, format, sheet, templates string
		midiOpts                      export.MIDIOptions
	)
	cmd := &cobra.Command{
		Use:   "export <song>",
		Short: "Write a song as chord text, YAML, JSON, MIDI or a printable sheet",
		Long: `Write a song in another format. Formats:

  text   chord text, as read by import (only chords and section names)
  yaml   song file
  json   song file
  midi   Standard MIDI File with the chords as a backing track
  sheet  printable chord sheet rendered with a template, see --sheet

Without --format, the format follows the extension of --out.`,
		Example: `  chordgrid export song.yaml -o song.mid --bass
  chordgrid export song.yaml --format sheet --sheet html -o song.html
  chordgrid export song.yaml --format sheet --sheet chart --templates 'tmpl/**/*.tmpl'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.newSession(cmd.ErrOrStderr())
			if err := s.open(args[0]); err != nil {
				return err
			}
			ext := strings.ToLower(filepath.Ext(out))
			if format == "" {
				format = extFormats[ext]
			}
			if format == "" {
				format = "text"
			}
			if sheet == "" {
				sheet = "markdown"
				if ext == ".html" {
					sheet = "html"
				}
			}
			var buf bytes.Buffer
			song := s.model.Song()
			switch format {
			case "text":
				buf.WriteString(s.model.ExportText())
			case "yaml", "json":
				b, err := editor.MarshalSong(song, "."+format)
				if err != nil {
					return err
				}
				buf.Write(b)
			case "midi":
				if err := export.WriteMIDI(&buf, song, midiOpts); err != nil {
					return err
				}
			case "sheet":
				sheets, err := loadSheets(templates)
				if err != nil {
					return err
				}
				if err := sheets.Render(&buf, sheet, song, s.model.BarsPerLine().Value()); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			a.logger.Debug("exported", "format", format, "bytes", buf.Len())
			return writeOutput(out, cmd.OutOrStdout(), buf.Bytes())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default standard output)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "text, yaml, json, midi or sheet")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet template: markdown, html, text or one from --templates")
	cmd.Flags().StringVar(&templates, "templates", "", "glob of extra sheet templates, ** matches directories")
	cmd.Flags().IntVar(&midiOpts.Octave, "octave", 4, "octave of the MIDI chord roots")
	cmd.Flags().Uint8Var(&midiOpts.Program, "program", 0, "General MIDI program of the chords")
	cmd.Flags().BoolVar(&midiOpts.Bass, "bass", false, "add a bass line to the MIDI file")
	return cmd
}

func loadSheets(pattern string) (*export.Sheets, error) {
	if pattern == "" {
		return export.NewSheets()
	}
	return export.LoadSheets(pattern)
}

func writeOutput(path string, w io.Writer, b []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
