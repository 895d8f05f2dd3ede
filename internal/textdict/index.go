// Package textdict loads the hash-keyed localization dictionary and resolves
// source text against it.
package textdict

// Index maps the hash of a text to its localized replacement.
// It is built once at startup and only read afterwards.
type Index struct {
	entries map[uint64]string
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{entries: make(map[uint64]string)}
}

// Put stores text under hash. A later Put for the same hash wins.
func (ix *Index) Put(hash uint64, text string) {
	ix.entries[hash] = text
}

// Lookup returns the text stored under hash.
func (ix *Index) Lookup(hash uint64) (string, bool) {
	if ix == nil {
		return "", false
	}
	text, ok := ix.entries[hash]
	return text, ok
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}
