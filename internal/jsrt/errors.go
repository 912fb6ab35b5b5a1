package jsrt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotInitialized is returned when a context failed initialization
	ErrNotInitialized = errors.New("jsrt: context not initialized")

	// ErrContextDisposed is returned (or panicked with) when a disposed context is used
	ErrContextDisposed = errors.New("jsrt: context disposed")

	// ErrScopeOrder is panicked with when scopes are exited out of order
	ErrScopeOrder = errors.New("jsrt: scope exited out of order")

	// ErrContextInUse is panicked with when a context is disposed while entered
	ErrContextInUse = errors.New("jsrt: context is entered")

	// ErrForeignContext is returned when a context belongs to another isolate
	ErrForeignContext = errors.New("jsrt: context belongs to another isolate")

	// ErrNotOwned is returned when an object is not owned by the registering context
	ErrNotOwned = errors.New("jsrt: object not owned by context")
)

// InitError reports a built-in that could not be initialized.
type InitError struct {
	Name string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("jsrt: initialize %s: %v", e.Name, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// TemplateMismatchError reports global template members missing the expected shape.
type TemplateMismatchError struct {
	Missing []string
}

func (e *TemplateMismatchError) Error() string {
	return "jsrt: global template missing " + strings.Join(e.Missing, ", ")
}

// ErrIsolateDisposed is returned when creating a context on a disposed isolate
var ErrIsolateDisposed = errors.New("jsrt: isolate disposed")
