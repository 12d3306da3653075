package graph

import (
	"github.com/hmans/shelf/internal/store"
	"github.com/hmans/shelf/internal/validation"
)

//go:generate go tool gqlgen generate

// Resolver is the root resolver for the GraphQL schema.
// It holds no state of its own beyond the store handle, so one Resolver can
// serve any number of concurrent requests.
type Resolver struct {
	Store store.Store
}

var validate = validation.New()
