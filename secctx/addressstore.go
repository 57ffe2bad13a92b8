package secctx

import (
	"strings"

	"webshield/waf"
)

type entryState int

const (
	// needed means an evaluator declared interest but no data was supplied yet.
	needed entryState = iota + 1

	// available means data was supplied and not yet delivered to the evaluator.
	available
)

type addressEntry struct {
	state entryState
	value interface{}
}

// AddressStore is the typed address-to-value mapping for one request. It
// tracks which addresses a bound evaluator still needs versus which already
// carry data, and hands each concrete value to the consumer at most once.
type AddressStore struct {
	entries     map[string]addressEntry
	contentType waf.ResponseContentType
}

// NewAddressStore creates an empty AddressStore.
func NewAddressStore() *AddressStore {
	return &AddressStore{
		entries:     make(map[string]addressEntry),
		contentType: waf.ResponseContentTypeJSON,
	}
}

// DeclareNeeded marks each name as needed unless the store already has an
// entry for it. Previously supplied data survives re-declaration.
func (s *AddressStore) DeclareNeeded(names []string) {
	for _, name := range names {
		if _, ok := s.entries[name]; !ok {
			s.entries[name] = addressEntry{state: needed}
		}
	}
}

// SetValue stores a value for an address. Names never declared needed are
// accepted too; need-tracking is advisory for the evaluator, not an access
// filter. Header-shaped addresses are normalized before storage, and storing
// the request headers address sniffs the Accept value to pick the response
// content type hint. A nil value only declares interest in the address.
func (s *AddressStore) SetValue(name string, value interface{}) {
	if value == nil {
		s.DeclareNeeded([]string{name})
		return
	}

	if strings.HasSuffix(name, waf.HeadersAddressSuffix) {
		if normalized := NormalizeHeaders(value); normalized != nil {
			value = normalized

			if name == waf.AddrHeadersNoCookies && acceptPrefersHTML(normalized) {
				s.contentType = waf.ResponseContentTypeHTML
			}
		}
	}

	s.entries[name] = addressEntry{state: available, value: value}
}

// IsNeeded reports whether the address was declared needed and no data has
// been supplied for it yet.
func (s *AddressStore) IsNeeded(name string) bool {
	e, ok := s.entries[name]
	return ok && e.state == needed
}

// IsAvailable reports whether the address currently carries undelivered data.
func (s *AddressStore) IsAvailable(name string) bool {
	e, ok := s.entries[name]
	return ok && e.state == available
}

// GetValue returns the available value for an address, or nil.
func (s *AddressStore) GetValue(name string) interface{} {
	e, ok := s.entries[name]
	if !ok || e.state != available {
		return nil
	}
	return e.value
}

// NeededNames returns the addresses that are still waiting for data.
func (s *AddressStore) NeededNames() (names []string) {
	for name, e := range s.entries {
		if e.state == needed {
			names = append(names, name)
		}
	}
	return
}

// TakeAvailable returns a snapshot of all currently available entries and
// removes them from the store. Each value is delivered at most once; a later
// SetValue re-supplies, and the next Bind re-declares the needed set.
func (s *AddressStore) TakeAvailable() map[string]interface{} {
	taken := make(map[string]interface{})
	for name, e := range s.entries {
		if e.state == available {
			taken[name] = e.value
			delete(s.entries, name)
		}
	}
	return taken
}

// Drop removes an entry regardless of its state. Used to consume addresses
// that were delivered through caller-supplied extra data.
func (s *AddressStore) Drop(name string) {
	delete(s.entries, name)
}

// ResponseContentType returns the negotiated blocked-response content type hint.
func (s *AddressStore) ResponseContentType() waf.ResponseContentType {
	return s.contentType
}

// Reset clears all entries and restores the default content type hint.
func (s *AddressStore) Reset() {
	s.entries = make(map[string]addressEntry)
	s.contentType = waf.ResponseContentTypeJSON
}
