package domain

import "fmt"

// Kind classifies the errors the core can produce (spec §7). The HTTP and
// WS adapters map Kind to a status code without ever string-matching an
// error message.
type Kind uint8

const (
	// KindInternal is the zero value; it never leaves the engine (§7:
	// "internal invariant violations... must never be observable to a
	// correct client").
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindRejected
	KindOverloaded
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindRejected:
		return "rejected"
	case KindOverloaded:
		return "overloaded"
	default:
		return "internal"
	}
}

// Error is the typed error returned by every engine/book entry point that
// can fail for a reason a client should see.
type Error struct {
	Kind   Kind
	Reason string
	err    error
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Reason)
}

func (e *Error) Unwrap() error { return e.err }

func newError(k Kind, reason string) *Error {
	return &Error{Kind: k, Reason: reason}
}

// BadRequest reports malformed input (§7): bad decimal, non-positive
// quantity, missing price for Limit/IOC/FOK, unknown side/type.
func BadRequest(reason string) *Error { return newError(KindBadRequest, reason) }

// NotFound reports a cancel target that is absent or already terminal.
func NotFound(reason string) *Error { return newError(KindNotFound, reason) }

// Rejected reports a Market order against zero opposite-side liquidity.
// A FOK that cannot fully fill is not an error: the book returns it with
// status Cancelled and no trades.
func Rejected(reason string) *Error { return newError(KindRejected, reason) }

// Overloaded reports a per-symbol resting-order cap hit.
func Overloaded(reason string) *Error { return newError(KindOverloaded, reason) }

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, k Kind) bool {
	de, ok := err.(*Error)
	return ok && de.Kind == k
}
