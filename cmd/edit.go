package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmans/shelf/internal/ui"
)

var (
	editBorn int
	editJSON bool
)

var editCmd = &cobra.Command{
	Use:     "edit <author>",
	Short:   "Set an author's birth year",
	Example: `  shelf edit "Robert Martin" --born 1952`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := resolver.Mutation().EditAuthor(cmd.Context(), args[0], editBorn)
		if err != nil {
			return fmt.Errorf("failed to edit author: %w", err)
		}
		if a == nil {
			return fmt.Errorf("no author named %q", args[0])
		}

		if editJSON {
			return printJSON(a)
		}
		fmt.Println(ui.Success.Render("Updated ") + ui.Author.Render(a.Name) + ui.Muted.Render(" born ") + ui.RenderBorn(a.Born))
		return nil
	},
}

func init() {
	editCmd.Flags().IntVar(&editBorn, "born", 0, "Birth year")
	editCmd.Flags().BoolVar(&editJSON, "json", false, "Output as JSON")
	_ = editCmd.MarkFlagRequired("born")
	rootCmd.AddCommand(editCmd)
}
