package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshsymonds/appquality/internal/models"
)

// ErrIncompleteData is returned when a successful response lacks a section
// the query requires.
var ErrIncompleteData = errors.New("incomplete catalog data")

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	// KindConfig indicates a misconfigured source.
	KindConfig ErrorKind = "config"
	// KindTransport indicates the request could not be delivered.
	KindTransport ErrorKind = "transport"
	// KindStatus indicates a non-success response status.
	KindStatus ErrorKind = "status"
	// KindDecode indicates a response body that could not be decoded.
	KindDecode ErrorKind = "decode"
	// KindQuery indicates the catalog rejected the query.
	KindQuery ErrorKind = "query"
	// KindContext indicates cancellation or deadline expiry.
	KindContext ErrorKind = "context"
)

// FetchError is a failure of the catalog collaborator. It is always fatal to
// the report being built.
type FetchError struct {
	Err    error
	Source string
	Kind   ErrorKind
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s catalog source %s error: %v", e.Source, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// newFetchError wraps err, classifying context errors as KindContext.
func newFetchError(source string, kind ErrorKind, err error) *FetchError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindContext
	}
	return &FetchError{Source: source, Kind: kind, Err: err}
}

// IsFetchError reports whether err wraps a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// RequireSection returns ErrIncompleteData, wrapped with the section name,
// when the payload lacks the section.
func RequireSection(p *models.Payload, section string) error {
	if p.Has(section) {
		return nil
	}
	return fmt.Errorf("missing %q section: %w", section, ErrIncompleteData)
}
