package mongodb

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/store"
)

type authorDoc struct {
	ID   primitive.ObjectID `bson:"_id"`
	Name string             `bson:"name"`
	Born *int               `bson:"born,omitempty"`
}

func (d *authorDoc) author() *catalog.Author {
	return &catalog.Author{ID: d.ID.Hex(), Name: d.Name, Born: d.Born}
}

type authorStore struct {
	coll   *mongo.Collection
	logger zerolog.Logger
}

// authorQuery translates f into a BSON filter. ok is false when f cannot
// match anything (a malformed ID).
func authorQuery(f store.AuthorFilter) (q bson.M, ok bool) {
	q = bson.M{}
	if f.ID != nil {
		oid, err := objectID(*f.ID)
		if err != nil {
			return nil, false
		}
		q["_id"] = oid
	}
	if f.Name != nil {
		q["name"] = *f.Name
	}
	return q, true
}

func (s *authorStore) FindOne(ctx context.Context, f store.AuthorFilter) (*catalog.Author, error) {
	q, ok := authorQuery(f)
	if !ok {
		return nil, catalog.ErrNotFound
	}

	var doc authorDoc
	err := s.coll.FindOne(ctx, q, options.FindOne().SetSort(insertionOrder)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, catalog.Unavailable("find author", err)
	}
	return doc.author(), nil
}

func (s *authorStore) FindAll(ctx context.Context, f store.AuthorFilter) ([]*catalog.Author, error) {
	q, ok := authorQuery(f)
	if !ok {
		return []*catalog.Author{}, nil
	}

	cur, err := s.coll.Find(ctx, q, options.Find().SetSort(insertionOrder))
	if err != nil {
		return nil, catalog.Unavailable("list authors", err)
	}
	var docs []authorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, catalog.Unavailable("list authors", err)
	}

	authors := make([]*catalog.Author, len(docs))
	for i := range docs {
		authors[i] = docs[i].author()
	}
	return authors, nil
}

func (s *authorStore) Count(ctx context.Context, f store.AuthorFilter) (int, error) {
	q, ok := authorQuery(f)
	if !ok {
		return 0, nil
	}
	n, err := s.coll.CountDocuments(ctx, q)
	if err != nil {
		return 0, catalog.Unavailable("count authors", err)
	}
	return int(n), nil
}

// Insert ignores any preset ID; mongo records are always keyed by a fresh ObjectID.
func (s *authorStore) Insert(ctx context.Context, a *catalog.Author) (*catalog.Author, error) {
	doc := authorDoc{ID: primitive.NewObjectID(), Name: a.Name, Born: a.Clone().Born}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logger.Debug().Str("name", a.Name).Msg("author name already taken")
			return nil, catalog.Conflict("author %q already exists", a.Name)
		}
		return nil, catalog.Unavailable("insert author", err)
	}
	return doc.author(), nil
}

func (s *authorStore) Update(ctx context.Context, authorID string, u catalog.AuthorUpdate) (*catalog.Author, error) {
	oid, err := objectID(authorID)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if u.Born != nil {
		set["born"] = *u.Born
	}
	if len(set) == 0 {
		return s.FindOne(ctx, store.ByID(authorID))
	}

	var doc authorDoc
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, catalog.NotFound("author %q not found", authorID)
	}
	if err != nil {
		return nil, catalog.Unavailable("update author", err)
	}
	return doc.author(), nil
}
