// Package catalog defines the books and authors held by the shelf.
package catalog

// Book is a single catalog entry. It references its author by ID rather than
// embedding it, so the author is always resolved from the store on read.
type Book struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Published int      `json:"published"`
	AuthorID  string   `json:"authorId"`
	Genres    []string `json:"genres"`
}

// HasGenre reports whether the book is labelled with genre.
func (b *Book) HasGenre(genre string) bool {
	for _, g := range b.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// Author is a writer of one or more books. Name is the natural key and is
// unique across all authors. The number of books is never stored here.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Born *int   `json:"born,omitempty"`
}

// AuthorUpdate holds the mutable fields of an Author. Nil fields are left unchanged.
type AuthorUpdate struct {
	Born *int
}

// Apply copies the set fields of u onto a.
func (u AuthorUpdate) Apply(a *Author) {
	if u.Born != nil {
		born := *u.Born
		a.Born = &born
	}
}

// NewBook is the input of the addBook operation.
type NewBook struct {
	Title     string   `json:"title" validate:"required"`
	Published int      `json:"published"`
	Author    string   `json:"author" validate:"required"`
	Genres    []string `json:"genres" validate:"dive,required"`
}

// AuthorEdit is the input of the editAuthor operation.
type AuthorEdit struct {
	Author    string `json:"author" validate:"required"`
	BirthYear int    `json:"birthYear"`
}

// Clone returns a deep copy of the book.
func (b *Book) Clone() *Book {
	c := *b
	c.Genres = append([]string{}, b.Genres...)
	return &c
}

// Clone returns a deep copy of the author.
func (a *Author) Clone() *Author {
	c := *a
	if a.Born != nil {
		born := *a.Born
		c.Born = &born
	}
	return &c
}
