package graph

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/rs/zerolog"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hmans/shelf/internal/catalog"
)

// PresentError converts a resolver error into a GraphQL error. Catalog errors
// carry their code in extensions.code; validation errors also list the
// offending fields in extensions.fields.
func PresentError(ctx context.Context, err error) *gqlerror.Error {
	gqlErr := graphql.DefaultErrorPresenter(ctx, err)

	var ce *catalog.Error
	if !errors.As(err, &ce) {
		return gqlErr
	}

	if gqlErr.Extensions == nil {
		gqlErr.Extensions = map[string]any{}
	}
	gqlErr.Extensions["code"] = string(ce.Code)
	if fields, ok := ce.Details.(map[string]string); ok && len(fields) > 0 {
		gqlErr.Extensions["fields"] = fields
	}
	return gqlErr
}

// Recover logs a resolver panic and hides its details from the client.
func Recover(ctx context.Context, p any) error {
	zerolog.Ctx(ctx).Error().
		Str("panic", fmt.Sprint(p)).
		Bytes("stack", debug.Stack()).
		Msg("resolver panicked")
	return gqlerror.Errorf("internal system error")
}

// LogOperations logs every completed operation with its duration and error count.
func LogOperations(ctx context.Context, next graphql.OperationHandler) graphql.ResponseHandler {
	oc := graphql.GetOperationContext(ctx)
	start := time.Now()
	responses := next(ctx)

	return func(ctx context.Context) *graphql.Response {
		resp := responses(ctx)
		if resp == nil {
			return nil
		}

		log := zerolog.Ctx(ctx)
		ev := log.Debug()
		if len(resp.Errors) > 0 {
			ev = log.Warn()
		}

		name := oc.OperationName
		kind := ""
		if oc.Operation != nil {
			kind = string(oc.Operation.Operation)
			if name == "" {
				name = oc.Operation.Name
			}
		}

		ev.Str("operation", kind).
			Str("name", name).
			Dur("duration", time.Since(start)).
			Int("errors", len(resp.Errors)).
			Msg("graphql operation")
		return resp
	}
}
