package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmans/shelf/internal/seed"
	"github.com/hmans/shelf/internal/ui"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yml>",
	Short: "Import authors and books from a YAML file",
	Long: `Imports authors and books from a YAML file of the form:

  authors:
    - name: Robert Martin
      born: 1952
  books:
    - title: Clean Code
      published: 2008
      author: Robert Martin
      genres: [refactoring]

Existing authors are reused. Books are always added.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := seed.Load(args[0])
		if err != nil {
			return err
		}

		res, err := seed.Apply(cmd.Context(), resolver, f)
		if err != nil {
			return fmt.Errorf("seeding failed after %d book(s): %w", res.BooksAdded, err)
		}

		fmt.Printf("%s %d book(s), %d new author(s), %d author(s) updated\n",
			ui.Success.Render("Imported"), res.BooksAdded, res.AuthorsCreated, res.AuthorsUpdated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
