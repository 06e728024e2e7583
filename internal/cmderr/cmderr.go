// Package cmderr defines the typed failure kinds produced by the store and
// engine layers, translated to RESP error replies at the dispatcher boundary.
package cmderr

import "errors"

// Kind tags a command-layer failure so the dispatcher can pick the right
// RESP error text without string-sniffing.
type Kind int

const (
	KindNone Kind = iota
	KindWrongType
	KindNotFound
	KindOutOfRange
	KindInvalidArgument
	KindNoStream
	KindNoGroup
	KindBusyGroup
	KindInvalidID
	KindSyntax
	KindArity
)

// Error is a store/engine failure carrying a Kind for dispatcher translation.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

var (
	// WrongType is returned whenever a command is applied to a key whose
	// stored value has a different type tag.
	WrongType = New(KindWrongType, "WRONGTYPE Operation against a key holding the wrong kind of value")

	NotFound = New(KindNotFound, "ERR no such key")

	NotInteger = New(KindInvalidArgument, "ERR value is not an integer or out of range")

	NotFloat = New(KindInvalidArgument, "ERR value is not a valid float")

	SyntaxErr = New(KindSyntax, "ERR syntax error")
)

// As reports whether err is a *Error and returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// OutOfRange builds a KindOutOfRange error with a custom message.
func OutOfRange(msg string) *Error { return New(KindOutOfRange, msg) }

// Invalid builds a generic InvalidArgument error with a custom message.
func Invalid(msg string) *Error { return New(KindInvalidArgument, msg) }

// Arity builds the standard "wrong number of arguments" error for cmd.
func Arity(cmd string) *Error {
	return New(KindArity, "ERR wrong number of arguments for '"+cmd+"' command")
}
