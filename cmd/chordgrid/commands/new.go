package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vsariola/chordgrid"
)

func newNewCmd(a *app) *cobra.Command {
	var (
		title, artist, key, timeSig string
		tempo                       int
		length                      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "new [file]",
		Short: "Create a song file",
		Long: `Create a song with one empty four bar section and write it to file, or
to standard output. With --length, the song instead gets empty bars with
timestamps covering a recording of that length at the given tempo.`,
		Example: `  chordgrid new --title "Autumn Leaves" --time 4/4 autumn.yaml
  chordgrid new --tempo 96 --length 3m20s take1.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := a.cfg.TimeSignature
			if timeSig != "" {
				var err error
				if ts, err = chordgrid.ParseTimeSignature(timeSig); err != nil {
					return err
				}
			}
			song := chordgrid.NewSong(ts)
			song.Tempo = a.cfg.Tempo
			s := a.newSession(cmd.ErrOrStderr())
			if err := s.model.SetSong(song); err != nil {
				return err
			}
			if cmd.Flags().Changed("tempo") {
				s.model.Tempo().SetValue(tempo)
			}
			s.model.Title().SetValue(title)
			s.model.Artist().SetValue(artist)
			if key != "" {
				s.model.Key().SetValue(key)
			}
			if length > 0 {
				if err := s.model.AutoGenerate(length.Seconds()).Do(); err != nil {
					return err
				}
			}
			if err := s.report(); err != nil {
				return err
			}
			return s.write(firstArg(args), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "song title")
	cmd.Flags().StringVar(&artist, "artist", "", "song artist")
	cmd.Flags().StringVar(&key, "key", "", "key of the song, e.g. Am")
	cmd.Flags().StringVar(&timeSig, "time", "", "time signature, e.g. 6/8 (default from config)")
	cmd.Flags().IntVar(&tempo, "tempo", 0, "tempo in beats per minute (default from config)")
	cmd.Flags().DurationVar(&length, "length", 0, "generate bars covering a recording of this length")
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
