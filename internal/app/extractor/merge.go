package extractor

import (
	"fmt"

	"github.com/heartmarshall/mastertext/internal/domain"
	"github.com/heartmarshall/mastertext/internal/orderedmap"
)

// MergePolicy decides who wins when a source row and the snapshot share a key.
type MergePolicy string

const (
	// PolicyCarryForward lets every row of the current scan win. Snapshot
	// entries only fill keys the scan did not produce.
	PolicyCarryForward MergePolicy = "carry-forward"
	// PolicyPreferSnapshot seeds the table with the snapshot and inserts rows
	// only where the snapshot has no value.
	PolicyPreferSnapshot MergePolicy = "prefer-snapshot"
)

// ParseMergePolicy validates a policy name. Blank means PolicyCarryForward.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case "", PolicyCarryForward:
		return PolicyCarryForward, nil
	case PolicyPreferSnapshot:
		return PolicyPreferSnapshot, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", s)
	}
}

// MergeStats counts what happened while building one table.
type MergeStats struct {
	Rows           int // source rows scanned
	Resolved       int // rows stored with their dictionary text
	Duplicates     int // rows dropped because their key was already taken
	CarriedForward int // entries taken from the snapshot
}

// Entries returns the number of leaf entries in the merged table.
func (s MergeStats) Entries() int {
	return s.Rows - s.Duplicates + s.CarriedForward
}

// NestedScanner feeds two-level rows to fn until the source is exhausted.
type NestedScanner func(fn func(domain.NestedRow) error) error

// FlatScanner feeds single-level rows to fn until the source is exhausted.
type FlatScanner func(fn func(domain.FlatRow) error) error

// MergeNested builds a two-level table. For each row the stored text is the
// dictionary override when there is one, otherwise the raw text. The first
// row for a key wins over later rows with the same key. The snapshot (may be
// nil) is merged per policy.
func MergeNested(scan NestedScanner, resolver TextResolver, snapshot *orderedmap.Nested, policy MergePolicy) (*orderedmap.Nested, MergeStats, error) {
	out := orderedmap.NewNested()
	stats, err := merge[nestedKey](nestedView{out}, nestedView{snapshot}, func(put func(nestedKey, string) error) error {
		return scan(func(row domain.NestedRow) error {
			return put(nestedKey{outer: row.Outer, inner: row.Inner}, row.Text)
		})
	}, resolver, policy)
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// MergeFlat builds a single-level table with the same rules as MergeNested.
func MergeFlat(scan FlatScanner, resolver TextResolver, snapshot *orderedmap.Flat, policy MergePolicy) (*orderedmap.Flat, MergeStats, error) {
	out := orderedmap.NewFlat()
	if snapshot == nil {
		snapshot = orderedmap.NewFlat()
	}
	stats, err := merge[int64](out, snapshot, func(put func(int64, string) error) error {
		return scan(func(row domain.FlatRow) error {
			return put(row.ID, row.Text)
		})
	}, resolver, policy)
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// keyedTable is the part of an output table merge needs.
type keyedTable[K any] interface {
	SetIfAbsent(key K, text string) bool
	Range(fn func(key K, text string) bool)
}

func merge[K any](
	out, snapshot keyedTable[K],
	scan func(put func(K, string) error) error,
	resolver TextResolver,
	policy MergePolicy,
) (MergeStats, error) {
	var stats MergeStats

	fill := func() {
		snapshot.Range(func(key K, text string) bool {
			if out.SetIfAbsent(key, text) {
				stats.CarriedForward++
			}
			return true
		})
	}

	if policy == PolicyPreferSnapshot {
		fill()
	}

	err := scan(func(key K, raw string) error {
		stats.Rows++
		text, resolved := resolve(resolver, raw)
		if !out.SetIfAbsent(key, text) {
			stats.Duplicates++
			return nil
		}
		if resolved {
			stats.Resolved++
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	if policy != PolicyPreferSnapshot {
		fill()
	}
	return stats, nil
}

func resolve(resolver TextResolver, raw string) (string, bool) {
	if resolver == nil {
		return raw, false
	}
	if text, ok := resolver.Resolve(raw); ok {
		return text, true
	}
	return raw, false
}

type nestedKey struct {
	outer, inner int64
}

// nestedView flattens a Nested table to (outer, inner) keys.
type nestedView struct {
	m *orderedmap.Nested
}

func (v nestedView) SetIfAbsent(key nestedKey, text string) bool {
	return v.m.GetOrInsert(key.outer, orderedmap.NewFlat).SetIfAbsent(key.inner, text)
}

func (v nestedView) Range(fn func(key nestedKey, text string) bool) {
	v.m.Range(func(outer int64, inner *orderedmap.Flat) bool {
		more := true
		inner.Range(func(k int64, text string) bool {
			more = fn(nestedKey{outer: outer, inner: k}, text)
			return more
		})
		return more
	})
}
