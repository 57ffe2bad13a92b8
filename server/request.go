package server

import (
	"io"
	"net/http"

	"webshield/waf"
)

// httpRequest adapts *http.Request to the interfaces the results logger and
// the body parser consume.
type httpRequest struct {
	inner    *http.Request
	txID     string
	clientIP string
	body     io.Reader
}

func (r *httpRequest) URI() string { return r.inner.RequestURI }

func (r *httpRequest) ClientIP() string { return r.clientIP }

func (r *httpRequest) TransactionID() string { return r.txID }

func (r *httpRequest) BodyReader() io.Reader { return r.body }

func (r *httpRequest) Headers() (pairs []waf.HeaderPair) {
	for k, vs := range r.inner.Header {
		for _, v := range vs {
			pairs = append(pairs, waf.Header{K: k, V: v})
		}
	}
	return
}
