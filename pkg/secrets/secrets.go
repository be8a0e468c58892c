// Package secrets resolves WebDAV credentials that may be stored
// inline in a backend config or as a named reference into an external
// credential store. Only the inline case and the resolver contract are
// implemented here; a real keyring-backed Resolver is a thin external
// collaborator outside this module's scope (see DESIGN.md).
package secrets

import "fmt"

// Ref names a secret: either an inline value or a reference by name
// into an external store.
type Ref struct {
	Inline string
	KeyRef string
}

// IsInline reports whether this ref carries its value directly.
func (r Ref) IsInline() bool {
	return r.KeyRef == ""
}

// Resolver turns a Ref into its plaintext value.
type Resolver interface {
	Resolve(ref Ref) (string, error)
}

// ErrSecretNotFound is returned when a KeyRef has no matching entry.
var ErrSecretNotFound = fmt.Errorf("secrets: key not found")

// InlineResolver resolves only inline refs and a small in-memory map,
// standing in for a real keyring-backed implementation.
type InlineResolver struct {
	store map[string]string
}

// NewInlineResolver returns a resolver seeded with named secrets, for
// tests and for any binary that has no keyring access.
func NewInlineResolver(seed map[string]string) *InlineResolver {
	store := make(map[string]string, len(seed))
	for k, v := range seed {
		store[k] = v
	}
	return &InlineResolver{store: store}
}

func (r *InlineResolver) Resolve(ref Ref) (string, error) {
	if ref.IsInline() {
		return ref.Inline, nil
	}
	v, ok := r.store[ref.KeyRef]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrSecretNotFound, ref.KeyRef)
	}
	return v, nil
}
