package graph

import (
	goerrors "github.com/goliatone/go-errors"
)

// resolverError is the error shape reported to GraphQL clients. The text
// code of rich errors is exposed as extensions.code.
type resolverError struct {
	message string
	code    string
	source  error
}

func newResolverError(err error) *resolverError {
	out := &resolverError{
		message: "internal server error",
		code:    "INTERNAL",
		source:  err,
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		if richErr.Category != goerrors.CategoryInternal {
			out.message = richErr.Message
		}
		if richErr.TextCode != "" {
			out.code = richErr.TextCode
		}
	}

	return out
}

func (e *resolverError) Error() string { return e.message }

func (e *resolverError) Unwrap() error { return e.source }

// Extensions is read by graphql-go when building the response.
func (e *resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}
