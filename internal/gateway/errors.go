package gateway

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a query came back empty.
type ErrorKind string

// Query failure kinds.
const (
	KindInvocation ErrorKind = "invocation"
	KindExtraction ErrorKind = "extraction"
	KindConfigRead ErrorKind = "config-read"
)

// QueryError accompanies the empty value a read operation returns when the
// gateway could not be queried. Callers that only render can ignore it;
// callers that need to tell "no data" from "masked failure" inspect it.
type QueryError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// KindOf returns the query failure kind carried by err, or "" when err is not
// a *QueryError.
func KindOf(err error) ErrorKind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}

	return ""
}

// ErrInvalidJobID is returned for job ids that are empty or would be parsed
// as a flag by the gateway CLI.
var ErrInvalidJobID = errors.New("invalid job id")
