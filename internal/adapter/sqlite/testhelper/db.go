// Package testhelper builds throwaway master databases for tests.
package testhelper

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // sqlite driver for database/sql
)

//go:embed migrations/*.sql
var migrations embed.FS

// SetupMasterDB creates a master database file in t.TempDir(), applies the
// goose migrations that create the text tables, and returns the file path
// and a read-write handle closed via t.Cleanup.
func SetupMasterDB(t *testing.T) (string, *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "master.mdb")
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("testhelper: open %s: %v", path, err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := migrate(ctx, db); err != nil {
		t.Fatalf("testhelper: %v", err)
	}
	return path, db
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// TextData is a text_data fixture row.
type TextData struct {
	Category int64
	Index    int64
	Text     string
}

// CharacterSystemText is a character_system_text fixture row.
type CharacterSystemText struct {
	CharacterID int64
	VoiceID     int64
	Text        string
}

// Message is a race_jikkyo_comment / race_jikkyo_message fixture row.
type Message struct {
	ID      int64
	Message string
}

// InsertTextData inserts rows into text_data.
func InsertTextData(t *testing.T, db *sql.DB, rows ...TextData) {
	t.Helper()
	b := sq.Insert("text_data").Columns("id", "category", `"index"`, "text")
	for i, r := range rows {
		b = b.Values(i+1, r.Category, r.Index, r.Text)
	}
	exec(t, db, b)
}

// InsertCharacterSystemText inserts rows into character_system_text.
func InsertCharacterSystemText(t *testing.T, db *sql.DB, rows ...CharacterSystemText) {
	t.Helper()
	b := sq.Insert("character_system_text").Columns("character_id", "voice_id", "text")
	for _, r := range rows {
		b = b.Values(r.CharacterID, r.VoiceID, r.Text)
	}
	exec(t, db, b)
}

// InsertMessages inserts rows into race_jikkyo_comment or race_jikkyo_message.
func InsertMessages(t *testing.T, db *sql.DB, table string, rows ...Message) {
	t.Helper()
	b := sq.Insert(table).Columns("id", "message")
	for _, r := range rows {
		b = b.Values(r.ID, r.Message)
	}
	exec(t, db, b)
}

// DropTable removes a table so queries against it fail to prepare.
func DropTable(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	if _, err := db.Exec("DROP TABLE " + table); err != nil {
		t.Fatalf("testhelper: drop %s: %v", table, err)
	}
}

func exec(t *testing.T, db *sql.DB, b sq.InsertBuilder) {
	t.Helper()
	query, args, err := b.ToSql()
	if err != nil {
		t.Fatalf("testhelper: build insert: %v", err)
	}
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("testhelper: insert: %v", err)
	}
}
