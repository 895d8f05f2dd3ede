package textdict

// Resolver maps raw source text to its dictionary override.
type Resolver struct {
	index  *Index
	hasher Hasher
}

// NewResolver creates a Resolver over index using hasher.
func NewResolver(index *Index, hasher Hasher) *Resolver {
	return &Resolver{index: index, hasher: hasher}
}

// Enabled reports whether any override can ever match.
func (r *Resolver) Enabled() bool {
	return r != nil && r.index.Len() > 0
}

// Resolve returns the localized text for raw, if the dictionary has one.
// With an empty dictionary no hash is computed.
func (r *Resolver) Resolve(raw string) (string, bool) {
	if !r.Enabled() {
		return "", false
	}
	return r.index.Lookup(r.hasher.Sum64(raw))
}
