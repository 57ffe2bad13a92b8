package waf

// Address names identify the units of request data that evaluators consume.
// The names follow the convention the evaluator contract uses on the wire.
const (
	AddrHTTPClientIP         = "REQUEST_HTTP_IP"
	AddrHeadersNoCookies     = "REQUEST_HEADERS_NO_COOKIES"
	AddrHeadersNoCookiesCase = "REQUEST_HEADERS_NO_COOKIES_CASE"
	AddrMethod               = "REQUEST_METHOD"
	AddrURIRaw               = "REQUEST_URI_RAW"
	AddrQuery                = "REQUEST_QUERY"
	AddrPathParams           = "REQUEST_PATH_PARAMS"
	AddrCookies              = "REQUEST_COOKIES"
	AddrBody                 = "REQUEST_BODY"
)

// HeadersAddressSuffix marks address names whose values are header
// collections and therefore go through header normalization when stored.
const HeadersAddressSuffix = "HEADERS_NO_COOKIES"
