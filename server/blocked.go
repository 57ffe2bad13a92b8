package server

import (
	"net/http"

	"webshield/waf"
)

// Bodies served when a request is blocked, shaped by the negotiated
// content type hint.
const (
	blockedResponseJSON = `{"errors": [{"title": "You've been blocked", "detail": "Sorry, you cannot access this page. Please contact the customer service team."}]}`

	blockedResponseHTML = `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>You've been blocked</title></head>` +
		`<body><h1>Sorry, you cannot access this page.</h1><p>Please contact the customer service team.</p></body></html>`
)

func writeBlockedResponse(w http.ResponseWriter, contentType waf.ResponseContentType) {
	body := blockedResponseJSON
	ct := "application/json"
	if contentType == waf.ResponseContentTypeHTML {
		body = blockedResponseHTML
		ct = "text/html"
	}

	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(body))
}
