// Package cosmoerr defines the structured error returned by every fatal
// condition in the cosmology kernel. Each error carries a Kind so callers
// can branch with errors.Is against the exported sentinels.
package cosmoerr

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal kernel condition.
type Kind int

const (
	KindUnknown Kind = iota
	KindMapOrigin
	KindMapDomain
	KindMapFormat
	KindDirection
	KindCoordSys
	KindNotConverged
	KindTableWrite
	KindInvalidInput
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindMapOrigin:    "map_origin",
	KindMapDomain:    "map_domain",
	KindMapFormat:    "map_format",
	KindDirection:    "direction",
	KindCoordSys:     "coord_sys",
	KindNotConverged: "not_converged",
	KindTableWrite:   "table_write",
	KindInvalidInput: "invalid_input",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrMapOrigin    = &Error{Kind: KindMapOrigin}
	ErrMapDomain    = &Error{Kind: KindMapDomain}
	ErrMapFormat    = &Error{Kind: KindMapFormat}
	ErrDirection    = &Error{Kind: KindDirection}
	ErrCoordSys     = &Error{Kind: KindCoordSys}
	ErrNotConverged = &Error{Kind: KindNotConverged}
	ErrTableWrite   = &Error{Kind: KindTableWrite}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
)

// Error is a fatal kernel error. Op names the operation that failed and Msg
// carries the diagnostic context (target values, parameters, counts).
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an *Error with a formatted message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error that wraps err.
func Wrap(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
