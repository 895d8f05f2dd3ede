// Package jsonfile reads and writes the per-table JSON files: the extraction
// output and the snapshots of a previous run.
package jsonfile

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/pretty"

	"github.com/heartmarshall/mastertext/internal/domain"
)

const (
	defaultPermFile os.FileMode = 0o644
	defaultPermDir  os.FileMode = 0o755
	bufSize                     = 64 * 1024
)

// Options configures a Writer.
type Options struct {
	// Dir is the output directory, created if missing.
	Dir string
	// Pretty indents the output. The default is compact JSON.
	Pretty bool
	// Atomic writes into a temp file in Dir and renames it over the target.
	Atomic bool
}

// Writer writes one JSON file per table into a directory.
type Writer struct {
	dir    string
	pretty bool
	atomic bool
}

// NewWriter creates a Writer.
func NewWriter(opts Options) (*Writer, error) {
	if opts.Dir == "" {
		return nil, errors.New("jsonfile: output dir is required")
	}
	return &Writer{dir: opts.Dir, pretty: opts.Pretty, atomic: opts.Atomic}, nil
}

// Path returns the file path the table is written to.
func (w *Writer) Path(table domain.Table) string {
	return filepath.Join(w.dir, table.FileName())
}

// WriteTable serializes data and fully replaces the table's file with it.
// Key order is whatever data.MarshalJSON produces; nothing is re-sorted here.
func (w *Writer) WriteTable(ctx context.Context, table domain.Table, data json.Marshaler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := data.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode %s: %w", table, err)
	}
	if w.pretty {
		b = pretty.Pretty(b)
	}

	if err := os.MkdirAll(w.dir, defaultPermDir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	dest := w.Path(table)
	if w.atomic {
		err = writeAtomic(dest, b)
	} else {
		err = writeOverwrite(dest, b)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

func writeOverwrite(dest string, b []byte) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, defaultPermFile)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, bufSize)
	if _, err := bw.Write(b); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func writeAtomic(dest string, b []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, defaultPermFile)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	bw := bufio.NewWriterSize(tmp, bufSize)
	if _, err := bw.Write(b); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// Best effort: persist the rename.
	_ = syncDir(dir)
	return nil
}
