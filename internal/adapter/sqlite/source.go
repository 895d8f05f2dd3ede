package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/heartmarshall/mastertext/internal/domain"
)

// selects holds the fixed query per table. Id columns come first, text last.
var selects = map[domain.Table]sq.SelectBuilder{
	domain.TableTextData:            sq.Select("category", `"index"`, "text").From("text_data"),
	domain.TableCharacterSystemText: sq.Select("character_id", "voice_id", "text").From("character_system_text"),
	domain.TableRaceJikkyoComment:   sq.Select("id", "message").From("race_jikkyo_comment"),
	domain.TableRaceJikkyoMessage:   sq.Select("id", "message").From("race_jikkyo_message"),
}

// Source streams rows of the text tables.
type Source struct {
	db *sql.DB
}

// NewSource creates a Source over an open master database.
func NewSource(db *sql.DB) *Source {
	return &Source{db: db}
}

// Query returns the SQL text used for table.
func Query(table domain.Table) (string, error) {
	builder, ok := selects[table]
	if !ok {
		return "", fmt.Errorf("no query for table %q", table)
	}
	query, _, err := builder.ToSql()
	return query, err
}

// ScanNested calls fn for every row of a two-level table. A NULL text column
// is passed on as an empty string.
func (s *Source) ScanNested(ctx context.Context, table domain.Table, fn func(domain.NestedRow) error) error {
	if table.Shape() != domain.ShapeNested {
		return fmt.Errorf("table %s is not nested", table)
	}
	return s.scan(ctx, table, func(rows *sql.Rows) error {
		var (
			row  domain.NestedRow
			text sql.NullString
		)
		if err := rows.Scan(&row.Outer, &row.Inner, &text); err != nil {
			return mapError(err, table, domain.ErrQueryScan)
		}
		row.Text = text.String
		return fn(row)
	})
}

// ScanFlat calls fn for every row of a single-level table. A NULL message
// column is passed on as an empty string.
func (s *Source) ScanFlat(ctx context.Context, table domain.Table, fn func(domain.FlatRow) error) error {
	if table.Shape() != domain.ShapeFlat {
		return fmt.Errorf("table %s is not flat", table)
	}
	return s.scan(ctx, table, func(rows *sql.Rows) error {
		var (
			row  domain.FlatRow
			text sql.NullString
		)
		if err := rows.Scan(&row.ID, &text); err != nil {
			return mapError(err, table, domain.ErrQueryScan)
		}
		row.Text = text.String
		return fn(row)
	})
}

// scan prepares the table query and feeds each row to each. Prepare failures
// wrap domain.ErrQueryPrepare; row failures wrap domain.ErrQueryScan. Errors
// returned by each are passed through unwrapped.
//
// The driver compiles the statement on first execution, so an error from
// QueryContext (missing table, empty database) is a prepare failure too.
func (s *Source) scan(ctx context.Context, table domain.Table, each func(*sql.Rows) error) error {
	query, err := Query(table)
	if err != nil {
		return mapError(err, table, domain.ErrQueryPrepare)
	}

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return mapError(err, table, domain.ErrQueryPrepare)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return mapError(err, table, domain.ErrQueryPrepare)
	}
	defer rows.Close()

	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return mapError(rows.Err(), table, domain.ErrQueryScan)
}
