// Package apperr separates user-facing failures from internal ones.
//
// A *Friendly error carries a message meant to be printed as-is. Anything
// else is internal: the CLI prints a generic failure line and leaves the
// cause chain to the debug log.
package apperr

import (
	"errors"
	"fmt"
)

type Friendly struct {
	Code    string
	Message string
}

func (e *Friendly) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// New builds a friendly error.
func New(code, format string, args ...any) error {
	return &Friendly{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsFriendly returns the first friendly error in err's chain.
func AsFriendly(err error) (*Friendly, bool) {
	var f *Friendly
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Message is what the CLI shows for err.
func Message(err error) string {
	if f, ok := AsFriendly(err); ok {
		return f.Message
	}
	return "operation did not complete successfully"
}
