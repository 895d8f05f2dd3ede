package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/mastertext/internal/domain"
	"github.com/heartmarshall/mastertext/internal/orderedmap"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("tmp file not cleaned: %s", e.Name())
		}
	}
}

func TestNewWriter_RequiresDir(t *testing.T) {
	t.Parallel()

	_, err := NewWriter(Options{})
	assert.Error(t, err)
}

func TestWriteTable_Nested(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewWriter(Options{Dir: dir, Atomic: true})
	require.NoError(t, err)

	table := orderedmap.NewNested()
	table.GetOrInsert(1, orderedmap.NewFlat).Set(2, "Hello")

	require.NoError(t, w.WriteTable(context.Background(), domain.TableTextData, table))

	assert.Equal(t, `{"1":{"2":"Hello"}}`, readFile(t, filepath.Join(dir, "text_data.json")))
	assertNoTempFiles(t, dir)
}

func TestWriteTable_ReplacesExisting(t *testing.T) {
	t.Parallel()

	for _, atomic := range []bool{true, false} {
		dir := t.TempDir()
		w, err := NewWriter(Options{Dir: dir, Atomic: atomic})
		require.NoError(t, err)

		// Longer old content must not leave a tail behind.
		path := w.Path(domain.TableRaceJikkyoMessage)
		require.NoError(t, os.WriteFile(path, []byte(`{"1":"a much longer previous file body"}`), 0o644))

		table := orderedmap.NewFlat()
		table.Set(5, "Bonjour")
		require.NoError(t, w.WriteTable(context.Background(), domain.TableRaceJikkyoMessage, table))

		assert.Equal(t, `{"5":"Bonjour"}`, readFile(t, path), "atomic=%v", atomic)
		assertNoTempFiles(t, dir)
	}
}

func TestWriteTable_CreatesDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b")
	w, err := NewWriter(Options{Dir: dir, Atomic: true})
	require.NoError(t, err)

	require.NoError(t, w.WriteTable(context.Background(), domain.TableRaceJikkyoComment, orderedmap.NewFlat()))
	assert.Equal(t, `{}`, readFile(t, filepath.Join(dir, "race_jikkyo_comment.json")))
}

func TestWriteTable_Pretty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewWriter(Options{Dir: dir, Pretty: true})
	require.NoError(t, err)

	table := orderedmap.NewFlat()
	table.Set(10, "b")
	table.Set(2, "a")
	require.NoError(t, w.WriteTable(context.Background(), domain.TableRaceJikkyoComment, table))

	assert.Equal(t, "{\n  \"2\": \"a\",\n  \"10\": \"b\"\n}\n", readFile(t, w.Path(domain.TableRaceJikkyoComment)))
}

func TestWriteTable_ByteStable(t *testing.T) {
	t.Parallel()

	build := func(order []int64) *orderedmap.Nested {
		n := orderedmap.NewNested()
		for _, k := range order {
			n.GetOrInsert(k%3, orderedmap.NewFlat).Set(k, "t")
		}
		return n
	}

	dirA, dirB := t.TempDir(), t.TempDir()
	wa, _ := NewWriter(Options{Dir: dirA, Atomic: true})
	wb, _ := NewWriter(Options{Dir: dirB, Atomic: true})
	require.NoError(t, wa.WriteTable(context.Background(), domain.TableTextData, build([]int64{5, 1, 9, 3, 7})))
	require.NoError(t, wb.WriteTable(context.Background(), domain.TableTextData, build([]int64{9, 7, 5, 3, 1})))

	assert.Equal(t, readFile(t, wa.Path(domain.TableTextData)), readFile(t, wb.Path(domain.TableTextData)))
}

type failingTable struct{}

func (failingTable) MarshalJSON() ([]byte, error) { return nil, errors.New("boom") }

func TestWriteTable_EncodeErrorWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, _ := NewWriter(Options{Dir: dir, Atomic: true})

	err := w.WriteTable(context.Background(), domain.TableTextData, failingTable{})
	require.Error(t, err)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestWriteTable_CanceledContext(t *testing.T) {
	t.Parallel()

	w, _ := NewWriter(Options{Dir: t.TempDir()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.WriteTable(ctx, domain.TableTextData, orderedmap.NewNested())
	assert.ErrorIs(t, err, context.Canceled)
}
