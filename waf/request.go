package waf

import (
	"io"
)

// HeaderPair represents a header line in an HTTP request.
type HeaderPair interface {
	Key() string
	Value() string
}

// Header is a plain HeaderPair implementation for adapters that hold
// headers as simple key/value pairs.
type Header struct {
	K string
	V string
}

// Key returns the header name.
func (h Header) Key() string { return h.K }

// Value returns the header value.
func (h Header) Value() string { return h.V }

// ResponseContentType is the hint adapters use to shape a blocked-request response.
type ResponseContentType string

// Content type hints. JSON is the default; the hint flips to HTML when the
// request's Accept header prefers an HTML media type.
const (
	ResponseContentTypeJSON ResponseContentType = "text/json"
	ResponseContentTypeHTML ResponseContentType = "text/html"
)

// RequestBodyParserHTTPRequest represents an HTTP request to be parsed by RequestBodyParser.
type RequestBodyParserHTTPRequest interface {
	Headers() []HeaderPair
	BodyReader() io.Reader
}

// ResultsLoggerHTTPRequest represents an HTTP request to be logged by ResultsLogger.
type ResultsLoggerHTTPRequest interface {
	URI() string
	ClientIP() string
	TransactionID() string
}
