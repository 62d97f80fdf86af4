package decl

import (
	"errors"
	"fmt"
)

// ErrUnhandled is returned by dispatch points that meet a declaration
// variant they do not know.
var ErrUnhandled = errors.New("unhandled declaration variant")

// DeclError reports a fatal problem with one declaration of the tree.
type DeclError struct {
	Decl string // exposed path or native name of the offending declaration
	Err  error
}

func (e *DeclError) Error() string {
	return fmt.Sprintf("%s: %v", e.Decl, e.Err)
}

func (e *DeclError) Unwrap() error { return e.Err }

// Errorf returns a *DeclError for the named declaration wrapping err
// with additional context.
func Errorf(name string, err error, format string, args ...any) error {
	return &DeclError{Decl: name, Err: fmt.Errorf("%w: "+format, append([]any{err}, args...)...)}
}
