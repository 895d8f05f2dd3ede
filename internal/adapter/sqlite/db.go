// Package sqlite reads the fixed text tables from the game's master database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/heartmarshall/mastertext/internal/domain"
)

const driverName = "sqlite"

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// Open opens the master database read-only and reads its schema version for
// fail-fast validation, so a file that is not a database is rejected here.
// The caller owns the returned handle and must Close it.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", domain.ErrSourceOpen, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w %s: is a directory", domain.ErrSourceOpen, path)
	}

	db, err := sql.Open(driverName, readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", domain.ErrSourceOpen, path, err)
	}
	// Rows are read sequentially on a single connection.
	db.SetMaxOpenConns(1)

	var version int64
	if err := db.QueryRowContext(ctx, "PRAGMA schema_version").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w %s: %w", domain.ErrSourceOpen, path, err)
	}
	return db, nil
}

func readOnlyDSN(path string) string {
	return "file:" + uriEscaper.Replace(path) + "?mode=ro"
}
