// Package secctx holds the request-scoped security context that coordinates
// address data between pipeline stages and a bound evaluator.
package secctx

import (
	"strings"

	"webshield/waf"
)

// NormalizeHeaders converts a raw header collection into the canonical form
// stored under header-shaped addresses: names lower-cased, cookie and
// set-cookie entries dropped, and repeated names collapsed into an ordered
// list of values. Single-valued headers stay plain strings.
func NormalizeHeaders(value interface{}) map[string]interface{} {
	pairs := HeaderPairs(value)
	if pairs == nil {
		return nil
	}

	normalized := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		name := strings.ToLower(p.Key())
		if name == "cookie" || name == "set-cookie" {
			continue
		}

		existing, ok := normalized[name]
		if !ok {
			normalized[name] = p.Value()
			continue
		}

		switch existing := existing.(type) {
		case []string:
			normalized[name] = append(existing, p.Value())
		case string:
			normalized[name] = []string{existing, p.Value()}
		}
	}

	return normalized
}

// HeaderPairs flattens the header collection shapes that framework adapters
// contribute into an ordered pair list. Unsupported shapes yield nil.
func HeaderPairs(value interface{}) []waf.HeaderPair {
	switch value := value.(type) {
	case []waf.HeaderPair:
		return value
	case map[string]string:
		pairs := make([]waf.HeaderPair, 0, len(value))
		for k, v := range value {
			pairs = append(pairs, waf.Header{K: k, V: v})
		}
		return pairs
	case map[string][]string:
		pairs := make([]waf.HeaderPair, 0, len(value))
		for k, vs := range value {
			for _, v := range vs {
				pairs = append(pairs, waf.Header{K: k, V: v})
			}
		}
		return pairs
	case map[string]interface{}:
		pairs := make([]waf.HeaderPair, 0, len(value))
		for k, v := range value {
			switch v := v.(type) {
			case string:
				pairs = append(pairs, waf.Header{K: k, V: v})
			case []string:
				for _, s := range v {
					pairs = append(pairs, waf.Header{K: k, V: s})
				}
			}
		}
		return pairs
	}

	return nil
}

// acceptPrefersHTML reports whether the normalized header map carries an
// Accept value with an HTML media type token.
func acceptPrefersHTML(normalized map[string]interface{}) bool {
	accept, ok := normalized["accept"]
	if !ok {
		return false
	}

	switch accept := accept.(type) {
	case string:
		return strings.Contains(accept, "text/html")
	case []string:
		for _, v := range accept {
			if strings.Contains(v, "text/html") {
				return true
			}
		}
	}

	return false
}
