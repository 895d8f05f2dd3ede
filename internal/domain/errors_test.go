package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestTableError_Error(t *testing.T) {
	t.Parallel()

	err := NewTableError(TableTextData, fmt.Errorf("no such table: text_data: %w", ErrQueryPrepare))

	if got := err.Error(); got != "table text_data: no such table: text_data: prepare statement" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrQueryPrepare) {
		t.Fatal("errors.Is(err, ErrQueryPrepare) = false")
	}
}

func TestTableError_As(t *testing.T) {
	t.Parallel()

	var wrapped error = fmt.Errorf("extract: %w", NewTableError(TableRaceJikkyoMessage, ErrQueryScan))

	var te *TableError
	if !errors.As(wrapped, &te) {
		t.Fatal("errors.As should find *TableError")
	}
	if te.Table != TableRaceJikkyoMessage {
		t.Errorf("Table = %q, want %q", te.Table, TableRaceJikkyoMessage)
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrUsage, ErrSourceOpen, ErrQueryPrepare, ErrQueryScan,
		ErrMalformedShard, ErrMalformedKey, ErrMalformedSnapshot,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel errors %d and %d should not match", i, j)
			}
		}
	}
}
