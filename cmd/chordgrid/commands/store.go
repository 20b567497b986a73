package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newSaveCmd(a *app) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "save <song>",
		Short: "Save a song file to the store",
		Long: `Save a song file to the store configured in the config file and print
its id. With --id, the stored document with that id is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			s := a.newSession(cmd.ErrOrStderr())
			if err := s.open(args[0]); err != nil {
				return err
			}
			s.model.SetStoreID(id)
			s.model.SaveTo(cmd.Context(), st)
			if err := s.wait(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.model.StoreID())
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "id of the stored document to replace")
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "load <id>",
		Short: "Load a song from the store and write it to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			s := a.newSession(cmd.ErrOrStderr())
			s.model.LoadFrom(cmd.Context(), st, args[0])
			if err := s.wait(cmd.Context()); err != nil {
				return err
			}
			return s.write(out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default standard output)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the songs in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			docs, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), helpStyle.Render("no songs stored"))
				return nil
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(dim)).
				Headers("ID", "TITLE", "ARTIST", "SECTIONS", "REV", "UPDATED").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return labelStyle.Padding(0, 1)
					}
					return lipgloss.NewStyle().Padding(0, 1)
				})
			for _, d := range docs {
				t.Row(d.ID, d.Title, d.Artist, strconv.Itoa(d.Sections), strconv.Itoa(d.Revision), d.Updated.Local().Format(time.DateTime))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete songs from the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			for _, id := range args {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
				a.logger.Info("deleted", "id", id)
			}
			return nil
		},
	}
}
