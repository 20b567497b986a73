package commands

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/vsariola/chordgrid"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		out      string
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <text file>",
		Short: "Re-import a chord text file whenever it changes",
		Long: `Import a chord text file and write the song, then keep watching the file
and rewrite the song after every change until interrupted. Metadata of an
existing output file, such as the tempo and the title, is kept.`,
		Example: `  chordgrid watch chart.txt -o chart.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := filepath.Clean(args[0])
			if out == "" {
				out = outputPath(src, "", ".yaml")
			}
			w := &textWatcher{a: a, cmd: cmd, src: src, out: out, debounce: debounce}
			return w.run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output song file (default next to the input, as .yaml)")
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "wait for writes to settle this long")
	return cmd
}

type textWatcher struct {
	a        *app
	cmd      *cobra.Command
	src, out string
	debounce time.Duration
	s        *session
}

func (w *textWatcher) run(ctx context.Context) error {
	w.s = w.a.newSession(w.cmd.ErrOrStderr())
	if _, err := os.Stat(w.out); err == nil {
		if err := w.s.open(w.out); err != nil {
			return err
		}
	} else {
		song := chordgrid.NewSong(w.a.cfg.TimeSignature)
		song.Tempo = w.a.cfg.Tempo
		song.Title = titleOf(w.src)
		if err := w.s.model.SetSong(song); err != nil {
			return err
		}
	}
	if err := w.sync(); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	// editors often replace the file instead of writing it, so watch the
	// directory
	if err := fsw.Add(filepath.Dir(w.src)); err != nil {
		return err
	}
	w.a.logger.Info("watching", "file", w.src, "out", w.out)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()
	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) == w.src && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				w.a.logger.Debug("change detected", "file", event.Name, "op", event.Op.String())
				pending = true
				ticker.Reset(w.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.a.logger.Error("watcher error", "err", err)
		case <-ticker.C:
			if !pending {
				continue
			}
			pending = false
			if err := w.sync(); err != nil {
				w.a.logger.Warn("could not import", "file", w.src, "err", err)
			}
		}
	}
}

// sync imports the text file into the model and writes the song. Text
// without sections leaves the song and the output file as they are.
func (w *textWatcher) sync() error {
	text, err := os.ReadFile(w.src)
	if err != nil {
		return err
	}
	err = w.s.model.ImportText(string(text))
	w.s.report()
	if err != nil {
		return err
	}
	if err := w.s.write(w.out, w.cmd.OutOrStdout()); err != nil {
		return err
	}
	song := w.s.model.Song()
	w.a.logger.Info("updated", "out", w.out, "bars", song.NumBars())
	return nil
}
