package jsonfile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/heartmarshall/mastertext/internal/domain"
	"github.com/heartmarshall/mastertext/internal/orderedmap"
)

// SnapshotReader loads the output files of a previous run. Every failure is
// logged and yields an empty (or partial) table; none is fatal, and tables
// are independent of each other.
type SnapshotReader struct {
	dir string
	log *slog.Logger
}

// NewSnapshotReader creates a reader over dir. An empty dir disables
// snapshots: every Load returns an empty table.
func NewSnapshotReader(dir string, log *slog.Logger) *SnapshotReader {
	return &SnapshotReader{dir: dir, log: log}
}

// Enabled reports whether a snapshot directory is configured.
func (r *SnapshotReader) Enabled() bool {
	return r != nil && r.dir != ""
}

// LoadNested reads the snapshot of a two-level table. Outer values that are
// not objects and inner values that are not strings are skipped one by one.
// When an id occurs twice after parsing, the first occurrence is kept.
func (r *SnapshotReader) LoadNested(table domain.Table) *orderedmap.Nested {
	out := orderedmap.NewNested()
	doc, path, ok := r.open(table)
	if !ok {
		return out
	}

	entries, skipped := 0, 0
	doc.ForEach(func(outerKey, outerValue gjson.Result) bool {
		if !outerValue.IsObject() {
			skipped++
			r.log.Warn("skip malformed snapshot entry",
				slog.String("path", path),
				slog.String("key", outerKey.Str),
				slog.String("error", "value is not an object"),
			)
			return true
		}
		outer := parseLenientID(outerKey.Str)
		outerValue.ForEach(func(innerKey, innerValue gjson.Result) bool {
			if innerValue.Type != gjson.String {
				skipped++
				r.log.Warn("skip malformed snapshot entry",
					slog.String("path", path),
					slog.String("key", outerKey.Str+"/"+innerKey.Str),
					slog.String("error", "value is not a string"),
				)
				return true
			}
			inner := out.GetOrInsert(outer, orderedmap.NewFlat)
			if inner.SetIfAbsent(parseLenientID(innerKey.Str), innerValue.Str) {
				entries++
			}
			return true
		})
		return true
	})

	r.logLoaded(table, path, entries, skipped)
	return out
}

// LoadFlat reads the snapshot of a single-level table. Values that are not
// strings are skipped. When an id occurs twice after parsing, the first
// occurrence is kept.
func (r *SnapshotReader) LoadFlat(table domain.Table) *orderedmap.Flat {
	out := orderedmap.NewFlat()
	doc, path, ok := r.open(table)
	if !ok {
		return out
	}

	entries, skipped := 0, 0
	doc.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			skipped++
			r.log.Warn("skip malformed snapshot entry",
				slog.String("path", path),
				slog.String("key", key.Str),
				slog.String("error", "value is not a string"),
			)
			return true
		}
		if out.SetIfAbsent(parseLenientID(key.Str), value.Str) {
			entries++
		}
		return true
	})

	r.logLoaded(table, path, entries, skipped)
	return out
}

// open reads and validates the table's snapshot file. ok is false when there
// is nothing to merge.
func (r *SnapshotReader) open(table domain.Table) (doc gjson.Result, path string, ok bool) {
	if !r.Enabled() {
		return gjson.Result{}, "", false
	}
	path = filepath.Join(r.dir, table.FileName())

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.log.Info("no snapshot for table", slog.String("table", table.String()), slog.String("path", path))
		} else {
			r.log.Warn("skip unreadable snapshot", slog.String("path", path), slog.String("error", err.Error()))
		}
		return gjson.Result{}, path, false
	}

	if err := validateSnapshot(data); err != nil {
		r.log.Warn("skip malformed file", slog.String("path", path), slog.String("error", err.Error()))
		return gjson.Result{}, path, false
	}
	return gjson.ParseBytes(data), path, true
}

func validateSnapshot(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: invalid JSON", domain.ErrMalformedSnapshot)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return fmt.Errorf("%w: top-level value is not an object", domain.ErrMalformedSnapshot)
	}
	return nil
}

func (r *SnapshotReader) logLoaded(table domain.Table, path string, entries, skipped int) {
	r.log.Info("snapshot loaded",
		slog.String("table", table.String()),
		slog.String("path", path),
		slog.Int("entries", entries),
		slog.Int("skipped", skipped),
	)
}

// parseLenientID converts a snapshot key leniently: leading whitespace and
// one sign are accepted, digits are read up to the first non-digit, and a key
// without leading digits is 0. Out-of-range values saturate.
func parseLenientID(s string) int64 {
	i := 0
	for i < len(s) && isCSpace(s[i]) {
		i++
	}

	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	var n int64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		d := int64(s[i] - '0')
		if n > (math.MaxInt64-d)/10 {
			if neg {
				return math.MinInt64
			}
			return math.MaxInt64
		}
		n = n*10 + d
	}
	if neg {
		return -n
	}
	return n
}

func isCSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
