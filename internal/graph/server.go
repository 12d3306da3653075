package graph

import (
	"context"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/executor"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/vektah/gqlparser/v2/ast"
)

// NewHandler returns an HTTP handler serving the schema over GET and POST,
// with introspection enabled.
func NewHandler(r *Resolver) *handler.Server {
	srv := handler.New(NewExecutableSchema(Config{Resolvers: r}))
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))
	srv.Use(extension.Introspection{})
	srv.Use(extension.AutomaticPersistedQuery{
		Cache: lru.New[string](100),
	})

	srv.SetErrorPresenter(PresentError)
	srv.SetRecoverFunc(Recover)
	srv.AroundOperations(LogOperations)
	return srv
}

// Executor runs operations in-process with the same error handling as the
// HTTP handler.
type Executor struct {
	exec *executor.Executor
}

// NewExecutor creates an Executor for r.
func NewExecutor(r *Resolver) *Executor {
	exec := executor.New(NewExecutableSchema(Config{Resolvers: r}))
	exec.Use(extension.Introspection{})
	exec.SetErrorPresenter(PresentError)
	exec.SetRecoverFunc(Recover)
	exec.AroundOperations(LogOperations)
	return &Executor{exec: exec}
}

// Execute runs a single query or mutation and returns its response. Parse and
// validation failures are reported in the response's errors, like over HTTP.
func (e *Executor) Execute(ctx context.Context, query string, variables map[string]any, operationName string) *graphql.Response {
	ctx = graphql.StartOperationTrace(ctx)
	params := &graphql.RawParams{
		Query:         query,
		Variables:     variables,
		OperationName: operationName,
	}

	opCtx, errs := e.exec.CreateOperationContext(ctx, params)
	if errs != nil {
		return e.exec.DispatchError(graphql.WithOperationContext(ctx, opCtx), errs)
	}

	handler, ctx := e.exec.DispatchOperation(ctx, opCtx)
	return handler(ctx)
}
