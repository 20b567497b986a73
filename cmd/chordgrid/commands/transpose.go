package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newTransposeCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "transpose <song> <semitones>",
		Short: "Transpose the chords and the key of a song",
		Long: `Transpose every chord of a song, and its key, by a number of semitones.
The song is rewritten in place unless --out is given. Results use sharps.`,
		Example: `  chordgrid transpose song.yaml -- -3
  chordgrid transpose song.yaml 2 -o song-in-d.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("semitones must be an integer: %w", err)
			}
			s := a.newSession(cmd.ErrOrStderr())
			if err := s.open(args[0]); err != nil {
				return err
			}
			if err := s.model.Transpose(n).Do(); err != nil {
				return err
			}
			if out == "" {
				out = args[0]
			}
			a.logger.Debug("transposed", "semitones", n, "key", s.model.Key().Value(), "out", out)
			return s.write(out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for standard output")
	return cmd
}
