package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/vsariola/chordgrid"
)

func newImportCmd(a *app) *cobra.Command {
	var out, outDir, ext string
	cmd := &cobra.Command{
		Use:   "import <pattern>...",
		Short: "Convert chord text files to song files",
		Long: `Convert chord text files to song files. Every argument is a file or a
glob pattern; "**" matches any number of directories. Each input is written
next to itself, or into --out-dir, with the extension given by --ext. The
title of the song is taken from the file name.`,
		Example: `  chordgrid import verse.txt -o verse.yaml
  chordgrid import 'charts/**/*.txt' --out-dir songs --ext json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandGlobs(args)
			if err != nil {
				return err
			}
			if out != "" && len(files) != 1 {
				return fmt.Errorf("--out needs exactly one input, got %d", len(files))
			}
			for _, file := range files {
				dst := out
				if dst == "" {
					dst = outputPath(file, outDir, "."+strings.TrimPrefix(ext, "."))
				}
				if err := a.importFile(cmd, file, dst); err != nil {
					return err
				}
				a.logger.Info("imported", "from", file, "to", dst)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file for a single input, - for standard output")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for the output files")
	cmd.Flags().StringVar(&ext, "ext", "yaml", "extension of the output files: yaml or json")
	return cmd
}

func (a *app) importFile(cmd *cobra.Command, src, dst string) error {
	text, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	s := a.newSession(cmd.ErrOrStderr())
	song := chordgrid.NewSong(a.cfg.TimeSignature)
	song.Tempo = a.cfg.Tempo
	if err := s.model.SetSong(song); err != nil {
		return err
	}
	s.model.Title().SetValue(titleOf(src))
	if err := s.model.ImportText(string(text)); err != nil {
		s.report()
		return fmt.Errorf("%s: %w", src, err)
	}
	if err := s.report(); err != nil {
		return err
	}
	return s.write(dst, cmd.OutOrStdout())
}

// expandGlobs returns the files matching the patterns, in order and without
// duplicates. A pattern without matches is an error.
func expandGlobs(patterns []string) ([]string, error) {
	var ret []string
	seen := map[string]bool{}
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", p)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				ret = append(ret, m)
			}
		}
	}
	return ret, nil
}

func outputPath(src, dir, ext string) string {
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ext
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, name)
}

func titleOf(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(name))
}
