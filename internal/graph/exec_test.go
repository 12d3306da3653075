package graph

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/99designs/gqlgen/graphql"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/store"
)

func execute(t *testing.T, r *Resolver, query string, vars map[string]any) (map[string]any, *graphql.Response) {
	t.Helper()
	resp := NewExecutor(r).Execute(context.Background(), query, vars, "")
	if resp == nil {
		t.Fatal("Execute() returned nil response")
	}

	var data map[string]any
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			t.Fatalf("invalid response data %s: %v", resp.Data, err)
		}
	}
	return data, resp
}

func mustExecute(t *testing.T, r *Resolver, query string, vars map[string]any) map[string]any {
	t.Helper()
	data, resp := execute(t, r, query, vars)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	return data
}

func TestExecuteScenario(t *testing.T) {
	resolver, _ := setupTestResolver(t)

	data := mustExecute(t, resolver, `mutation {
		addBook(title: "Clean Code", published: 2008, author: "Robert Martin", genres: ["non-fiction"]) {
			__typename
			id
			title
			published
			genres
			author { name born bookCount }
		}
	}`, nil)

	book := data["addBook"].(map[string]any)
	if book["__typename"] != "Book" || book["title"] != "Clean Code" {
		t.Errorf("addBook = %v", book)
	}
	if book["published"] != float64(2008) {
		t.Errorf("published = %v, want 2008", book["published"])
	}
	if id, _ := book["id"].(string); id == "" {
		t.Error("addBook returned no id")
	}
	author := book["author"].(map[string]any)
	if author["name"] != "Robert Martin" || author["born"] != nil || author["bookCount"] != float64(1) {
		t.Errorf("addBook.author = %v", author)
	}

	data = mustExecute(t, resolver, `mutation AddBook($title: String!, $published: Int!, $author: String!, $genres: [String!]) {
		addBook(title: $title, published: $published, author: $author, genres: $genres) { title }
	}`, map[string]any{
		"title":     "Agile software development",
		"published": 2002,
		"author":    "Robert Martin",
		"genres":    []any{"agile", "patterns"},
	})
	if data["addBook"].(map[string]any)["title"] != "Agile software development" {
		t.Errorf("addBook with variables = %v", data)
	}

	data = mustExecute(t, resolver, `{
		bookCount
		authorCount
		allAuthors { name bookCount }
		byGenre: allBooks(genre: "agile") { title genres }
	}`, nil)
	if data["bookCount"] != float64(2) || data["authorCount"] != float64(1) {
		t.Errorf("counts = %v / %v, want 2 / 1", data["bookCount"], data["authorCount"])
	}
	authors := data["allAuthors"].([]any)
	if len(authors) != 1 || authors[0].(map[string]any)["bookCount"] != float64(2) {
		t.Errorf("allAuthors = %v", authors)
	}
	byGenre := data["byGenre"].([]any)
	if len(byGenre) != 1 || byGenre[0].(map[string]any)["title"] != "Agile software development" {
		t.Errorf("allBooks(genre) = %v", byGenre)
	}

	data = mustExecute(t, resolver, `mutation {
		known: editAuthor(author: "Robert Martin", birthYear: 1952) { name born }
		unknown: editAuthor(author: "Nobody", birthYear: 1900) { name born }
	}`, nil)
	known := data["known"].(map[string]any)
	if known["born"] != float64(1952) {
		t.Errorf("editAuthor born = %v, want 1952", known["born"])
	}
	if v, ok := data["unknown"]; !ok || v != nil {
		t.Errorf("editAuthor(unknown) = %v, want null", v)
	}
}

func TestExecuteValidationError(t *testing.T) {
	resolver, _ := setupTestResolver(t)

	data, resp := execute(t, resolver, `mutation {
		addBook(title: "", published: 2008, author: "Robert Martin") { id }
	}`, nil)
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", resp.Errors)
	}
	gqlErr := resp.Errors[0]
	if gqlErr.Extensions["code"] != string(catalog.CodeValidation) {
		t.Errorf("extensions.code = %v, want VALIDATION", gqlErr.Extensions["code"])
	}
	if fields, _ := gqlErr.Extensions["fields"].(map[string]string); fields["title"] == "" {
		t.Errorf("extensions.fields = %v, want title", gqlErr.Extensions["fields"])
	}
	if got := gqlErr.Path.String(); got != "addBook" {
		t.Errorf("path = %q, want addBook", got)
	}
	if v, ok := data["addBook"]; !ok || v != nil {
		t.Errorf("addBook = %v, want null", v)
	}

	data = mustExecute(t, resolver, `{ authorCount }`, nil)
	if data["authorCount"] != float64(0) {
		t.Errorf("authorCount = %v, want 0", data["authorCount"])
	}
}

func TestExecuteNullPropagation(t *testing.T) {
	resolver, spy, _ := setupSpyResolver(t)
	addTestBook(t, resolver, "Clean Code", 2008, "Robert Martin")

	spy.findOne = func(ctx context.Context, f store.AuthorFilter) (*catalog.Author, error) {
		return nil, catalog.Unavailable("find author", context.DeadlineExceeded)
	}

	data, resp := execute(t, resolver, `{ allBooks { title author { name } } }`, nil)
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", resp.Errors)
	}
	if got := resp.Errors[0].Path.String(); got != "allBooks[0].author" {
		t.Errorf("path = %q, want allBooks[0].author", got)
	}
	if resp.Errors[0].Extensions["code"] != string(catalog.CodeUnavailable) {
		t.Errorf("extensions.code = %v, want UNAVAILABLE", resp.Errors[0].Extensions["code"])
	}
	if data != nil {
		t.Errorf("data = %v, want null", data)
	}
}

func TestExecuteRejectsInvalidDocuments(t *testing.T) {
	resolver, _ := setupTestResolver(t)

	tests := []struct {
		name  string
		query string
	}{
		{"syntax error", `{ allBooks { title }`},
		{"unknown field", `{ allBooks { isbn } }`},
		{"missing required argument", `mutation { editAuthor(author: "Robert Martin") { name } }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp := execute(t, resolver, tt.query, nil)
			if len(resp.Errors) == 0 {
				t.Error("expected errors")
			}
		})
	}
}

func TestExecuteTypename(t *testing.T) {
	resolver, _ := setupTestResolver(t)

	data := mustExecute(t, resolver, `{ __typename }`, nil)
	if data["__typename"] != "Query" {
		t.Errorf("__typename = %v, want Query", data["__typename"])
	}
}

func TestExecuteIntrospection(t *testing.T) {
	resolver, _ := setupTestResolver(t)

	data := mustExecute(t, resolver, `{
		__schema { queryType { name } mutationType { name } }
		__type(name: "Book") { kind fields { name } }
	}`, nil)

	schema := data["__schema"].(map[string]any)
	if got := schema["queryType"].(map[string]any)["name"]; got != "Query" {
		t.Errorf("queryType = %v, want Query", got)
	}
	if got := schema["mutationType"].(map[string]any)["name"]; got != "Mutation" {
		t.Errorf("mutationType = %v, want Mutation", got)
	}

	book := data["__type"].(map[string]any)
	if book["kind"] != "OBJECT" {
		t.Errorf("Book kind = %v, want OBJECT", book["kind"])
	}
	var fields []string
	for _, f := range book["fields"].([]any) {
		fields = append(fields, f.(map[string]any)["name"].(string))
	}
	want := []string{"title", "published", "author", "id", "genres"}
	if len(fields) != len(want) {
		t.Fatalf("Book fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("Book fields = %v, want %v", fields, want)
			break
		}
	}
}
