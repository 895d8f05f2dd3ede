package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrUsage             = errors.New("usage error")
	ErrSourceOpen        = errors.New("open source database")
	ErrQueryPrepare      = errors.New("prepare statement")
	ErrQueryScan         = errors.New("scan rows")
	ErrMalformedShard    = errors.New("malformed dictionary shard")
	ErrMalformedKey      = errors.New("malformed dictionary key")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// TableError ties a failure to the table it happened in.
type TableError struct {
	Table Table
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %s: %v", e.Table, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }

// NewTableError wraps err with the table name.
func NewTableError(table Table, err error) *TableError {
	return &TableError{Table: table, Err: err}
}
