package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsariola/chordgrid"
	"github.com/vsariola/chordgrid/config"
	"github.com/vsariola/chordgrid/editor"
	"github.com/vsariola/chordgrid/recognize"
)

func newRecognizeCmd(a *app) *cobra.Command {
	var (
		out   string
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "recognize <image>",
		Short: "Read a chord chart from an image or other input",
		Long: `Send an image of a chord chart, or text in some other chord notation, to
an OpenAI compatible chat model and write the recognized song. The API key
is read from the config file or from ` + config.APIKeyEnv + `. With --plain, the
input is read as chord text without any model.`,
		Example: `  chordgrid recognize photo.jpg -o song.yaml
  chordgrid recognize --plain chart.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.recognizer(plain)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			s := a.newSession(cmd.ErrOrStderr())
			song := chordgrid.NewSong(a.cfg.TimeSignature)
			song.Tempo = a.cfg.Tempo
			song.Title = titleOf(args[0])
			if err := s.model.SetSong(song); err != nil {
				return err
			}
			s.model.Recognize(cmd.Context(), rec, f)
			if err := s.wait(cmd.Context()); err != nil {
				return err
			}
			return s.write(out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default standard output)")
	cmd.Flags().BoolVar(&plain, "plain", false, "read the input as chord text")
	return cmd
}

func (a *app) recognizer(plain bool) (editor.Recognizer, error) {
	if plain {
		return recognize.PlainText{}, nil
	}
	key := a.cfg.APIKey()
	if key == "" {
		return nil, errors.New("no OpenAI API key; set " + config.APIKeyEnv + " or openai.api_key, or use --plain")
	}
	return recognize.NewOpenAI(recognize.OpenAIOptions{
		APIKey:     key,
		BaseURL:    a.cfg.OpenAI.BaseURL,
		Model:      a.cfg.OpenAI.Model,
		MaxRetries: -1,
		Logger:     a.logger,
	})
}
