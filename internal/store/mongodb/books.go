package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/store"
)

type bookDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Published int                `bson:"published"`
	Author    primitive.ObjectID `bson:"author"`
	Genres    []string           `bson:"genres"`
}

func (d *bookDoc) book() *catalog.Book {
	genres := d.Genres
	if genres == nil {
		genres = []string{}
	}
	return &catalog.Book{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Published: d.Published,
		AuthorID:  d.Author.Hex(),
		Genres:    genres,
	}
}

type bookStore struct {
	coll    *mongo.Collection
	authors *mongo.Collection
}

func bookQuery(f store.BookFilter) (q bson.M, ok bool) {
	q = bson.M{}
	if f.AuthorID != nil {
		oid, err := objectID(*f.AuthorID)
		if err != nil {
			return nil, false
		}
		q["author"] = oid
	}
	if f.Genre != nil {
		// Equality against an array field matches any element.
		q["genres"] = *f.Genre
	}
	return q, true
}

func (s *bookStore) FindOne(ctx context.Context, bookID string) (*catalog.Book, error) {
	oid, err := objectID(bookID)
	if err != nil {
		return nil, catalog.ErrNotFound
	}

	var doc bookDoc
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, catalog.Unavailable("find book", err)
	}
	return doc.book(), nil
}

func (s *bookStore) FindAll(ctx context.Context, f store.BookFilter) ([]*catalog.Book, error) {
	q, ok := bookQuery(f)
	if !ok {
		return []*catalog.Book{}, nil
	}

	cur, err := s.coll.Find(ctx, q, options.Find().SetSort(insertionOrder))
	if err != nil {
		return nil, catalog.Unavailable("list books", err)
	}
	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, catalog.Unavailable("list books", err)
	}

	books := make([]*catalog.Book, len(docs))
	for i := range docs {
		books[i] = docs[i].book()
	}
	return books, nil
}

func (s *bookStore) Count(ctx context.Context, f store.BookFilter) (int, error) {
	q, ok := bookQuery(f)
	if !ok {
		return 0, nil
	}
	n, err := s.coll.CountDocuments(ctx, q)
	if err != nil {
		return 0, catalog.Unavailable("count books", err)
	}
	return int(n), nil
}

// Insert checks the author reference before writing. Authors are never
// deleted, so the check cannot be invalidated afterwards.
func (s *bookStore) Insert(ctx context.Context, b *catalog.Book) (*catalog.Book, error) {
	authorOID, err := objectID(b.AuthorID)
	if err != nil {
		return nil, catalog.NotFound("author %q not found", b.AuthorID)
	}
	n, err := s.authors.CountDocuments(ctx, bson.M{"_id": authorOID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, catalog.Unavailable("check book author", err)
	}
	if n == 0 {
		return nil, catalog.NotFound("author %q not found", b.AuthorID)
	}

	doc := bookDoc{
		ID:        primitive.NewObjectID(),
		Title:     b.Title,
		Published: b.Published,
		Author:    authorOID,
		Genres:    append([]string{}, b.Genres...),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, catalog.Unavailable("insert book", err)
	}
	return doc.book(), nil
}
