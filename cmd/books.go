package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/ui"
)

var (
	booksJSON   bool
	booksAuthor string
	booksGenre  string
)

// bookView is a book with its author resolved, as printed by the CLI.
type bookView struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Published int      `json:"published"`
	Author    string   `json:"author"`
	Genres    []string `json:"genres"`
}

var booksCmd = &cobra.Command{
	Use:     "books",
	Aliases: []string{"ls"},
	Short:   "List books",
	Long: `Lists books in insertion order, optionally filtered by author name and genre.
Both filters must match when both are given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var author, genre *string
		if cmd.Flags().Changed("author") {
			author = &booksAuthor
		}
		if cmd.Flags().Changed("genre") {
			genre = &booksGenre
		}

		books, err := resolver.Query().AllBooks(ctx, author, genre)
		if err != nil {
			return fmt.Errorf("failed to list books: %w", err)
		}

		views := make([]bookView, 0, len(books))
		for _, b := range books {
			a, err := resolver.Book().Author(ctx, b)
			if err != nil {
				return err
			}
			views = append(views, newBookView(b, a))
		}

		if booksJSON {
			return printJSON(views)
		}

		if len(views) == 0 {
			fmt.Println(ui.Muted.Render("No books found. Add one with: shelf add <title> --author <name> --published <year>"))
			return nil
		}

		rows := make([][]string, len(views))
		for i, v := range views {
			rows[i] = []string{
				ui.ID.Render(v.ID),
				ui.Title.Render(ui.Truncate(v.Title, 40)),
				strconv.Itoa(v.Published),
				ui.Author.Render(ui.Truncate(v.Author, 24)),
				ui.RenderGenres(v.Genres),
			}
		}
		fmt.Print(ui.Table([]ui.Column{
			{Title: "ID", Width: 14},
			{Title: "TITLE", Width: 42},
			{Title: "YEAR", Width: 6},
			{Title: "AUTHOR", Width: 26},
			{Title: "GENRES"},
		}, rows))
		return nil
	},
}

func newBookView(b *catalog.Book, a *catalog.Author) bookView {
	return bookView{
		ID:        b.ID,
		Title:     b.Title,
		Published: b.Published,
		Author:    a.Name,
		Genres:    b.Genres,
	}
}

func init() {
	booksCmd.Flags().BoolVar(&booksJSON, "json", false, "Output as JSON")
	booksCmd.Flags().StringVarP(&booksAuthor, "author", "a", "", "Only books by this author")
	booksCmd.Flags().StringVarP(&booksGenre, "genre", "g", "", "Only books in this genre")
	rootCmd.AddCommand(booksCmd)
}
