// Package extractor runs the text extraction pipeline: for each table it scans
// the source rows, resolves each text against the localization dictionary,
// merges in the previous run's snapshot, and writes the result.
package extractor

import (
	"context"
	"encoding/json"

	"github.com/heartmarshall/mastertext/internal/domain"
	"github.com/heartmarshall/mastertext/internal/orderedmap"
)

// TextSource streams the rows of the master database text tables.
// Implemented by sqlite.Source.
type TextSource interface {
	ScanNested(ctx context.Context, table domain.Table, fn func(domain.NestedRow) error) error
	ScanFlat(ctx context.Context, table domain.Table, fn func(domain.FlatRow) error) error
}

// TextResolver maps raw text to its dictionary override.
// Implemented by textdict.Resolver.
type TextResolver interface {
	Resolve(raw string) (string, bool)
}

// SnapshotStore returns a previous run's output per table. A missing or
// unusable snapshot is an empty table, never an error.
// Implemented by jsonfile.SnapshotReader.
type SnapshotStore interface {
	LoadNested(table domain.Table) *orderedmap.Nested
	LoadFlat(table domain.Table) *orderedmap.Flat
}

// TableWriter persists one finished table.
// Implemented by jsonfile.Writer.
type TableWriter interface {
	WriteTable(ctx context.Context, table domain.Table, data json.Marshaler) error
}
