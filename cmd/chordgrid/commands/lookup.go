package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsariola/chordgrid/metadata"
)

func newLookupCmd(a *app) *cobra.Command {
	var song string
	cmd := &cobra.Command{
		Use:   "lookup <url>",
		Short: "Look up the title and artist of a song URL",
		Long: `Look up the title and the artist of a video or page URL. The title is
taken from the oEmbed style endpoint of the config file, falling back to the
page itself, and split into title and artist. With --song, they are written
into a song file instead of printed.`,
		Example: `  chordgrid lookup https://youtu.be/zqNTltOGh5c
  chordgrid lookup https://youtu.be/zqNTltOGh5c --song so-what.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := metadata.NewClient(metadata.Options{
				Endpoint:   a.cfg.Metadata.Endpoint,
				TitleQuery: a.cfg.Metadata.TitleQuery,
				Logger:     a.logger,
			})
			if err != nil {
				return err
			}
			if song == "" {
				title, artist, err := client.Lookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "title:  %s\nartist: %s\n", title, artist)
				return nil
			}
			s := a.newSession(cmd.ErrOrStderr())
			if err := s.open(song); err != nil {
				return err
			}
			s.model.LookupMetadata(cmd.Context(), client, args[0])
			if err := s.wait(cmd.Context()); err != nil {
				return err
			}
			return s.write(song, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&song, "song", "", "song file to update")
	return cmd
}
