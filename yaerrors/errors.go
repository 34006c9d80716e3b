package yaerrors

import "errors"

// ErrTeapot is reported when a method is called on a nil error value.
// It keeps a nil *yaError from turning into a panic deep inside a handler.
var ErrTeapot = errors.New("backend developer is a teapot")

// Error kinds shared by every package of the module. Match them with errors.Is.
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvariantViolation = errors.New("arithmetic invariant violated")
	ErrOversizedBlock     = errors.New("decrypted block does not fit the plaintext block size")
	ErrMalformedInput     = errors.New("malformed input")
	ErrRetryLimitExceeded = errors.New("retry limit exceeded")
	ErrKeyNotFound        = errors.New("key not found")
)
