package router

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvable is wrapped by UnresolvableGroupError.
var ErrUnresolvable = errors.New("capability group unresolvable")

// SymbolError reports one symbol a namespace cannot supply.
type SymbolError struct {
	Symbol string
	Reason string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("symbol %s %s", e.Symbol, e.Reason)
}

// PartialAvailabilityError reports a backend that supplies only part of a
// group. The router absorbs it by binding the whole group elsewhere.
type PartialAvailabilityError struct {
	Group   string
	Backend Backend
	Missing []string
	Err     error
}

func (e *PartialAvailabilityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "backend %s cannot supply group %s", e.Backend, e.Group)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing [%s]", strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *PartialAvailabilityError) Unwrap() error { return e.Err }

// UnresolvableGroupError is returned at first use of a group no backend can
// supply completely. It is memoized like a successful binding.
type UnresolvableGroupError struct {
	Group string
	// Causes holds the failure of each backend tried, in order.
	Causes []error
}

func (e *UnresolvableGroupError) Error() string {
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("capability group %s unresolvable: %s", e.Group, strings.Join(msgs, "; "))
}

func (e *UnresolvableGroupError) Unwrap() []error {
	return append([]error{ErrUnresolvable}, e.Causes...)
}
