// Package clientip resolves the real client IP of a request, preferring a
// trusted proxy header value over the raw connection address.
package clientip

import (
	"net"
	"net/textproto"
	"strings"

	"webshield/waf"
)

// candidateHeaders are the proxy headers consulted, in priority order.
var candidateHeaders = []string{
	"x-forwarded-for",
	"x-real-ip",
	"true-client-ip",
	"client-ip",
	"x-client-ip",
	"x-forwarded",
	"x-cluster-client-ip",
	"forwarded-for",
	"forwarded",
	"via",
}

// Resolve picks the client IP for a request. Candidate proxy headers are
// walked in priority order; the first public IP found wins, a private IP is
// kept as fallback, and the connection's remote address (port stripped) is
// the last resort. With caseSensitive set, header names must match the
// candidate exactly or in its canonical MIME form; otherwise names compare
// case-insensitively.
func Resolve(remoteAddr string, headers []waf.HeaderPair, caseSensitive bool) string {
	var privateFallback string

	for _, candidate := range candidateHeaders {
		value := lookupHeader(headers, candidate, caseSensitive)
		if value == "" {
			continue
		}

		for _, part := range strings.Split(value, ",") {
			ip := parseCandidate(strings.TrimSpace(part))
			if ip == nil {
				continue
			}
			if isGlobal(ip) {
				return ip.String()
			}
			if privateFallback == "" {
				privateFallback = ip.String()
			}
		}
	}

	if privateFallback != "" {
		return privateFallback
	}

	return stripPort(remoteAddr)
}

func lookupHeader(headers []waf.HeaderPair, name string, caseSensitive bool) string {
	canonical := textproto.CanonicalMIMEHeaderKey(name)
	for _, p := range headers {
		if caseSensitive {
			if p.Key() == name || p.Key() == canonical {
				return p.Value()
			}
		} else if strings.EqualFold(p.Key(), name) {
			return p.Value()
		}
	}
	return ""
}

// parseCandidate parses a single header list element, tolerating an
// attached port and the Forwarded header's for= form.
func parseCandidate(s string) net.IP {
	if s == "" {
		return nil
	}

	// Forwarded: for=1.2.3.4;proto=http
	lower := strings.ToLower(s)
	if idx := strings.Index(lower, "for="); idx >= 0 {
		s = s[idx+len("for="):]
		if end := strings.IndexAny(s, ";, "); end >= 0 {
			s = s[:end]
		}
		s = strings.Trim(s, `"`)
	}

	s = strings.Trim(s, "[]")
	if ip := net.ParseIP(s); ip != nil {
		return ip
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		return net.ParseIP(strings.Trim(host, "[]"))
	}

	return nil
}

var privateBlocks = parseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"100.64.0.0/10",
	"fc00::/7",
)

func parseCIDRs(cidrs ...string) (blocks []*net.IPNet) {
	for _, c := range cidrs {
		_, block, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		blocks = append(blocks, block)
	}
	return
}

// isGlobal reports whether the IP is routable on the public internet.
func isGlobal(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() {
		return false
	}
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return false
		}
	}
	return true
}

func stripPort(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return strings.Trim(host, "[]")
	}
	return remoteAddr
}
