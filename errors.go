package crossbase

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors returned by the backends, the router collaborators and the
// migration. Callers match them with errors.Is or the Is* helpers below.
var (
	// ErrNotFound: a message, flow or folder row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a conditional write lost against a concurrent writer.
	ErrConflict = errors.New("concurrent modification")
	// ErrInvalidData: a record or stored document is malformed.
	ErrInvalidData = errors.New("invalid data")

	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	// ErrNotSupported: the active backend lacks the operation, e.g. flows on
	// the standalone backend.
	ErrNotSupported = errors.New("not supported by the active backend")

	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrorWithContext annotates an error with key/value details for logs.
type ErrorWithContext struct {
	Err     error
	Context map[string]interface{}
}

// Error renders the wrapped error followed by its context sorted by key,
// e.g. "not found (id=m1, kind=message)".
func (e *ErrorWithContext) Error() string {
	if len(e.Context) == 0 {
		return e.Err.Error()
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(e.Err.Error())
	b.WriteString(" (")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
	}
	b.WriteByte(')')
	return b.String()
}

func (e *ErrorWithContext) Unwrap() error { return e.Err }

// WithContext wraps err with context. A nil err stays nil.
func WithContext(err error, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &ErrorWithContext{Err: err, Context: context}
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsNotSupported reports whether the active backend declined an operation.
func IsNotSupported(err error) bool { return errors.Is(err, ErrNotSupported) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsPermanent reports whether retrying err cannot help. A dependency that
// answers with a permanent error is still healthy.
func IsPermanent(err error) bool {
	for _, target := range []error{ErrNotFound, ErrUnauthorized, ErrInvalidData, ErrInvalidConfig, ErrNotSupported} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
