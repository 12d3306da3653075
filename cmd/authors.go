package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hmans/shelf/internal/ui"
)

var authorsJSON bool

type authorView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Born      *int   `json:"born"`
	BookCount int    `json:"bookCount"`
}

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "List authors with their book counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		authors, err := resolver.Query().AllAuthors(ctx)
		if err != nil {
			return fmt.Errorf("failed to list authors: %w", err)
		}

		views := make([]authorView, 0, len(authors))
		for _, a := range authors {
			n, err := resolver.Author().BookCount(ctx, a)
			if err != nil {
				return err
			}
			views = append(views, authorView{ID: a.ID, Name: a.Name, Born: a.Born, BookCount: n})
		}

		if authorsJSON {
			return printJSON(views)
		}

		if len(views) == 0 {
			fmt.Println(ui.Muted.Render("No authors yet. Authors are created when their first book is added."))
			return nil
		}

		rows := make([][]string, len(views))
		for i, v := range views {
			rows[i] = []string{
				ui.ID.Render(v.ID),
				ui.Author.Render(ui.Truncate(v.Name, 30)),
				ui.RenderBorn(v.Born),
				strconv.Itoa(v.BookCount),
			}
		}
		fmt.Print(ui.Table([]ui.Column{
			{Title: "ID", Width: 14},
			{Title: "NAME", Width: 32},
			{Title: "BORN", Width: 6},
			{Title: "BOOKS"},
		}, rows))
		return nil
	},
}

func init() {
	authorsCmd.Flags().BoolVar(&authorsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(authorsCmd)
}
