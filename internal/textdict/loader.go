package textdict

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/heartmarshall/mastertext/internal/domain"
)

// LoadStats holds dictionary load statistics.
type LoadStats struct {
	Files   int // regular files visited
	Loaded  int // files merged completely
	Aborted int // files cut short by a malformed key; earlier entries kept
	Skipped int // unreadable or malformed files, nothing merged
	Entries int // entries merged, duplicates included
}

// Loader builds an Index from a directory tree of JSON shard files.
type Loader struct {
	log *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(log *slog.Logger) *Loader {
	return &Loader{log: log}
}

// Load visits every regular file under root and merges each one that parses
// as a JSON object of "<uint64>": "<text>" pairs. Nothing here is fatal:
// bad files are logged and skipped, and an empty root yields an empty Index.
func (l *Loader) Load(root string) (*Index, LoadStats) {
	ix := NewIndex()
	var stats LoadStats
	if root == "" {
		return ix, stats
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.log.Warn("skip unreadable dictionary path",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !isRegularFile(path, d) {
			return nil
		}

		stats.Files++
		added, err := l.loadFile(ix, path)
		stats.Entries += added

		switch {
		case err == nil:
			stats.Loaded++
		case errors.Is(err, domain.ErrMalformedKey):
			stats.Aborted++
			l.log.Warn("skip malformed or static dict file",
				slog.String("path", path),
				slog.Int("entries_kept", added),
				slog.String("error", err.Error()),
			)
		default:
			stats.Skipped++
			l.log.Warn("skip malformed file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})
	if walkErr != nil {
		l.log.Warn("dictionary walk stopped",
			slog.String("path", root),
			slog.String("error", walkErr.Error()),
		)
	}

	l.log.Info("dictionary loaded",
		slog.String("path", root),
		slog.Int("files", stats.Files),
		slog.Int("loaded", stats.Loaded),
		slog.Int("aborted", stats.Aborted),
		slog.Int("skipped", stats.Skipped),
		slog.Int("entries", ix.Len()),
	)
	return ix, stats
}

// loadFile merges one shard into ix. Pairs are merged in document order and
// the first malformed pair stops the file; pairs merged before it stay in ix.
// It returns how many pairs were merged.
func (l *Loader) loadFile(ix *Index, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrMalformedShard, err)
	}
	if !gjson.ValidBytes(data) {
		return 0, fmt.Errorf("%w: invalid JSON", domain.ErrMalformedShard)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return 0, fmt.Errorf("%w: top-level value is not an object", domain.ErrMalformedShard)
	}

	added := 0
	var stopErr error
	doc.ForEach(func(key, value gjson.Result) bool {
		hash, err := parseHashKey(key.Str)
		if err != nil {
			stopErr = fmt.Errorf("%w %q", domain.ErrMalformedKey, key.Str)
			return false
		}
		if value.Type != gjson.String {
			stopErr = fmt.Errorf("%w: value of %q is not a string", domain.ErrMalformedKey, key.Str)
			return false
		}
		ix.Put(hash, value.Str)
		added++
		return true
	})
	return added, stopErr
}

// parseHashKey accepts only a plain decimal uint64 spanning the whole key:
// no sign, no whitespace, no overflow.
func parseHashKey(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// isRegularFile follows file symlinks but not directory ones.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
