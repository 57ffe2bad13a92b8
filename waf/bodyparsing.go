package waf

import (
	"errors"

	"github.com/rs/zerolog"
)

// RequestBodyParser parses HTTP request bodies into an address value that
// can be contributed to the security context. A nil value with a nil error
// means the body had no parsable form; the address is simply unavailable.
type RequestBodyParser interface {
	Parse(logger zerolog.Logger, req RequestBodyParserHTTPRequest) (value interface{}, err error)
	LengthLimits() LengthLimits
}

// LengthLimits states limitations we will enforce regarding the lengths of different parts of the request.
type LengthLimits struct {
	MaxLengthField    int // Max number of bytes in a single parsed field.
	MaxLengthPausable int // Max number of bytes across all parsed fields.
	MaxLengthTotal    int // Max number of bytes read from the body in total.
}

// ErrFieldBytesLimitExceeded is returned when the field length limit was exceeded.
var ErrFieldBytesLimitExceeded = errors.New("field length limit exceeded")

// ErrPausableBytesLimitExceeded is returned when the request length limit was exceeded.
var ErrPausableBytesLimitExceeded = errors.New("request length limit exceeded")

// ErrTotalBytesLimitExceeded is returned when the total request length limit was exceeded.
var ErrTotalBytesLimitExceeded = errors.New("total request length limit exceeded")
