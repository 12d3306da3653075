// Package mongodb provides a MongoDB-backed store. Authors and books live in two
// collections; books reference their author by ObjectID.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/store"
)

const (
	authorsCollection = "authors"
	booksCollection   = "books"
)

// Store provides MongoDB persistence for books and authors.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	authors *mongo.Collection
	books   *mongo.Collection
	logger  zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, selects database and ensures the indexes exist.
// The unique index on authors.name is what makes concurrent author creation safe.
func Open(ctx context.Context, uri, database string, logger zerolog.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:  client,
		db:      db,
		authors: db.Collection(authorsCollection),
		books:   db.Collection(booksCollection),
		logger:  logger,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	logger.Debug().Str("database", database).Msg("mongo store opened")
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.authors.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create authors.name index: %w", err)
	}

	_, err = s.books.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "genres", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create books indexes: %w", err)
	}
	return nil
}

// Authors returns the author store.
func (s *Store) Authors() store.AuthorStore { return &authorStore{coll: s.authors, logger: s.logger} }

// Books returns the book store.
func (s *Store) Books() store.BookStore { return &bookStore{coll: s.books, authors: s.authors} }

// Ping checks the connection to the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Debug().Msg("mongo store closed")
	return s.client.Disconnect(ctx)
}

// insertionOrder sorts by _id; ObjectIDs begin with their creation time.
var insertionOrder = bson.D{{Key: "_id", Value: 1}}

// objectID parses a hex record ID. Malformed IDs cannot match any record.
func objectID(hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, catalog.NotFound("no record with id %q", hex)
	}
	return oid, nil
}
