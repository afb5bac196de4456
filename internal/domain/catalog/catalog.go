// Package catalog is the boundary to the external product master data
// collaborator. The engine never owns product names; it receives the
// code-to-name mapping as an input at append time.
package catalog

import "strings"

// UnknownProductName is used when a product code has no catalog entry, so
// issuance never fails just because master data lags behind.
const UnknownProductName = "UNKNOWN"

// Resolver resolves a product code to its display name.
type Resolver interface {
	// ProductName returns the display name for a product code and whether
	// the code is known to the catalog.
	ProductName(code string) (string, bool)
}

// StaticResolver is a Resolver over a fixed in-memory mapping.
type StaticResolver struct {
	names map[string]string
}

// NewStaticResolver builds a resolver from a code-to-name map. Codes are
// normalized to upper case.
func NewStaticResolver(names map[string]string) *StaticResolver {
	m := make(map[string]string, len(names))
	for code, name := range names {
		m[strings.ToUpper(strings.TrimSpace(code))] = name
	}
	return &StaticResolver{names: m}
}

// ProductName implements Resolver.
func (r *StaticResolver) ProductName(code string) (string, bool) {
	name, ok := r.names[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// Len returns the number of catalog entries.
func (r *StaticResolver) Len() int {
	return len(r.names)
}

// ResolveOrUnknown is a convenience over any Resolver that substitutes
// UnknownProductName for missing codes.
func ResolveOrUnknown(r Resolver, code string) string {
	if r == nil {
		return UnknownProductName
	}
	if name, ok := r.ProductName(code); ok {
		return name
	}
	return UnknownProductName
}
