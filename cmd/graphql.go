package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hmans/shelf/internal/graph"
)

var (
	queryJSON       bool
	queryVariables  string
	queryOperation  string
	querySchemaOnly bool
)

var graphqlCmd = &cobra.Command{
	Use:     "graphql <query>",
	Aliases: []string{"query"},
	Short:   "Execute a GraphQL query or mutation",
	Long: `Execute a GraphQL query or mutation against the catalog.

The argument should be a valid GraphQL query or mutation string.

Examples:
  # Count books and authors
  shelf graphql '{ bookCount authorCount }'

  # List books of one author in one genre
  shelf graphql '{ allBooks(author: "Robert Martin", genre: "refactoring") { title published } }'

  # Authors with their book counts
  shelf graphql '{ allAuthors { name born bookCount } }'

  # Use variables
  shelf graphql -v '{"name": "Robert Martin"}' 'mutation Edit($name: String!) { editAuthor(author: $name, birthYear: 1952) { name born } }'

  # Read from stdin
  cat query.graphql | shelf graphql

  # Print the schema
  shelf graphql --schema`,
	Args: func(cmd *cobra.Command, args []string) error {
		if querySchemaOnly {
			return nil
		}
		// Allow 0 args if stdin has data, or exactly 1 arg
		if len(args) > 1 {
			return fmt.Errorf("accepts at most 1 argument (the GraphQL query)")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if querySchemaOnly {
			fmt.Print(GetGraphQLSchema())
			return nil
		}

		var query string
		if len(args) == 1 {
			query = args[0]
		} else {
			stdinQuery, err := readFromStdin()
			if err != nil {
				return err
			}
			if stdinQuery == "" {
				return fmt.Errorf("no query provided (pass as argument or pipe to stdin)")
			}
			query = stdinQuery
		}

		var variables map[string]any
		if queryVariables != "" {
			dec := json.NewDecoder(strings.NewReader(queryVariables))
			dec.UseNumber()
			if err := dec.Decode(&variables); err != nil {
				return fmt.Errorf("invalid variables JSON: %w", err)
			}
		}

		resp := graph.NewExecutor(resolver).Execute(cmd.Context(), query, variables, queryOperation)
		if len(resp.Errors) > 0 {
			return formatGraphQLErrors(resp.Errors)
		}

		if queryJSON {
			fmt.Println(string(resp.Data))
		} else {
			prettyPrint(resp.Data)
		}
		return nil
	},
}

// readFromStdin reads the query from stdin if data is available.
func readFromStdin() (string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}

	// If stdin is a terminal (no pipe), return empty
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return "", nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// formatGraphQLErrors formats GraphQL errors into a single error, keeping
// the error code where there is one.
func formatGraphQLErrors(errs gqlerror.List) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Message
		if code, ok := e.Extensions["code"].(string); ok {
			msg = fmt.Sprintf("%s (%s)", msg, code)
		}
		if len(e.Path) > 0 {
			msg = e.Path.String() + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 1 {
		return fmt.Errorf("graphql: %s", msgs[0])
	}
	return fmt.Errorf("graphql errors:\n  %s", strings.Join(msgs, "\n  "))
}

// prettyPrint outputs the JSON with colors and indentation.
func prettyPrint(data []byte) {
	fmt.Println(string(pretty.Color(pretty.Pretty(data), nil)))
}

// GetGraphQLSchema returns the GraphQL schema as a string.
func GetGraphQLSchema() string {
	es := graph.NewExecutableSchema(graph.Config{Resolvers: resolver})

	var buf bytes.Buffer
	f := formatter.NewFormatter(&buf, formatter.WithIndent("  "))
	f.FormatSchema(es.Schema())

	return buf.String()
}

func init() {
	graphqlCmd.Flags().BoolVar(&queryJSON, "json", false, "Output raw JSON (no formatting)")
	graphqlCmd.Flags().StringVarP(&queryVariables, "variables", "v", "", "Query variables as JSON string")
	graphqlCmd.Flags().StringVarP(&queryOperation, "operation", "o", "", "Operation name (for multi-operation documents)")
	graphqlCmd.Flags().BoolVar(&querySchemaOnly, "schema", false, "Print the GraphQL schema and exit")
	rootCmd.AddCommand(graphqlCmd)
}
