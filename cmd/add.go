package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/hmans/shelf/internal/logging"
	"github.com/hmans/shelf/internal/ui"
)

var (
	addAuthor    string
	addPublished int
	addGenres    []string
	addJSON      bool
)

var addCmd = &cobra.Command{
	Use:     "add [title]",
	Aliases: []string{"new"},
	Short:   "Add a book",
	Long: `Adds a book to the catalog. The author is created if no author of that
name exists yet.

Without a title, and when run in a terminal, an interactive form asks for the
book's details.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")

		if title == "" {
			if !logging.IsTerminal(os.Stdin) {
				return errors.New("a title is required")
			}
			if err := runAddForm(&title); err != nil {
				return err
			}
		}

		b, err := resolver.Mutation().AddBook(cmd.Context(), title, addPublished, addAuthor, addGenres)
		if err != nil {
			return fmt.Errorf("failed to add book: %w", err)
		}
		a, err := resolver.Book().Author(cmd.Context(), b)
		if err != nil {
			return err
		}

		if addJSON {
			return printJSON(newBookView(b, a))
		}

		fmt.Println(ui.Success.Render("Added ") + ui.ID.Render(b.ID) + " " +
			ui.Title.Render(b.Title) + ui.Muted.Render(" by ") + ui.Author.Render(a.Name))
		return nil
	},
}

// runAddForm asks for the book fields that were not given as flags.
func runAddForm(title *string) error {
	published := ""
	if addPublished != 0 {
		published = strconv.Itoa(addPublished)
	}
	genres := strings.Join(addGenres, ", ")

	notBlank := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Title").Value(title).Validate(notBlank("title")),
		huh.NewInput().Title("Author").Value(&addAuthor).Validate(notBlank("author")),
		huh.NewInput().Title("Published").Value(&published).Validate(func(s string) error {
			if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
				return errors.New("published must be a year")
			}
			return nil
		}),
		huh.NewInput().Title("Genres").Description("Comma-separated").Value(&genres),
	))
	if err := form.Run(); err != nil {
		return err
	}

	addPublished, _ = strconv.Atoi(strings.TrimSpace(published))
	addGenres = splitGenres(genres)
	return nil
}

func splitGenres(s string) []string {
	var out []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

func init() {
	addCmd.Flags().StringVarP(&addAuthor, "author", "a", "", "Author name")
	addCmd.Flags().IntVarP(&addPublished, "published", "p", 0, "Year of publication")
	addCmd.Flags().StringArrayVarP(&addGenres, "genre", "g", nil, "Genre (can be repeated)")
	addCmd.Flags().BoolVar(&addJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(addCmd)
}
