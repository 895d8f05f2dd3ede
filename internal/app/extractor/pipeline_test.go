package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/mastertext/internal/domain"
	"github.com/heartmarshall/mastertext/internal/orderedmap"
)

// fakeSource serves rows from memory.
type fakeSource struct {
	nested map[domain.Table][]domain.NestedRow
	flat   map[domain.Table][]domain.FlatRow
	errs   map[domain.Table]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		nested: make(map[domain.Table][]domain.NestedRow),
		flat:   make(map[domain.Table][]domain.FlatRow),
		errs:   make(map[domain.Table]error),
	}
}

func (s *fakeSource) ScanNested(_ context.Context, table domain.Table, fn func(domain.NestedRow) error) error {
	if err := s.errs[table]; err != nil {
		return err
	}
	for _, row := range s.nested[table] {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSource) ScanFlat(_ context.Context, table domain.Table, fn func(domain.FlatRow) error) error {
	if err := s.errs[table]; err != nil {
		return err
	}
	for _, row := range s.flat[table] {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// fakeWriter keeps the marshaled output per table.
type fakeWriter struct {
	mu      sync.Mutex
	files   map[domain.Table]string
	failFor domain.Table
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{files: make(map[domain.Table]string)}
}

func (w *fakeWriter) WriteTable(_ context.Context, table domain.Table, data json.Marshaler) error {
	if table == w.failFor {
		return errors.New("disk full")
	}
	b, err := data.MarshalJSON()
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[table] = string(b)
	return nil
}

type fakeSnapshots struct {
	nested    map[domain.Table]*orderedmap.Nested
	flat      map[domain.Table]*orderedmap.Flat
	flatCalls int
}

func (s *fakeSnapshots) LoadNested(table domain.Table) *orderedmap.Nested {
	return s.nested[table]
}

func (s *fakeSnapshots) LoadFlat(table domain.Table) *orderedmap.Flat {
	s.flatCalls++
	return s.flat[table]
}

type mapResolver map[string]string

func (r mapResolver) Resolve(raw string) (string, bool) {
	text, ok := r[raw]
	return text, ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nested(entries ...domain.NestedRow) *orderedmap.Nested {
	m := orderedmap.NewNested()
	for _, e := range entries {
		m.GetOrInsert(e.Outer, orderedmap.NewFlat).Set(e.Inner, e.Text)
	}
	return m
}

func flat(entries ...domain.FlatRow) *orderedmap.Flat {
	m := orderedmap.NewFlat()
	for _, e := range entries {
		m.Set(e.ID, e.Text)
	}
	return m
}

func TestPipeline_NoDictionaryNoSnapshot(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.nested[domain.TableTextData] = []domain.NestedRow{{Outer: 1, Inner: 2, Text: "Hello"}}
	w := newFakeWriter()

	p := NewPipeline(discardLogger(), src, nil, nil, w, Config{})
	require.NoError(t, p.Run(context.Background(), []domain.Table{domain.TableTextData}))

	assert.Equal(t, `{"1":{"2":"Hello"}}`, w.files[domain.TableTextData])
	assert.False(t, p.HasErrors())
}

func TestPipeline_DictionaryOverride(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.flat[domain.TableRaceJikkyoMessage] = []domain.FlatRow{{ID: 5, Text: "Hi"}}
	w := newFakeWriter()

	p := NewPipeline(discardLogger(), src, mapResolver{"Hi": "Bonjour"}, nil, w, Config{})
	require.NoError(t, p.Run(context.Background(), []domain.Table{domain.TableRaceJikkyoMessage}))

	assert.Equal(t, `{"5":"Bonjour"}`, w.files[domain.TableRaceJikkyoMessage])
	assert.Equal(t, 1, p.Results()[domain.TableRaceJikkyoMessage].Resolved)
}

func TestPipeline_CarryForward(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.nested[domain.TableTextData] = []domain.NestedRow{{Outer: 1, Inner: 2, Text: "New"}}
	snaps := &fakeSnapshots{nested: map[domain.Table]*orderedmap.Nested{
		domain.TableTextData: nested(
			domain.NestedRow{Outer: 1, Inner: 2, Text: "Old"},
			domain.NestedRow{Outer: 1, Inner: 9, Text: "Old"},
		),
	}}
	w := newFakeWriter()

	p := NewPipeline(discardLogger(), src, nil, snaps, w, Config{})
	require.NoError(t, p.Run(context.Background(), []domain.Table{domain.TableTextData}))

	assert.Equal(t, `{"1":{"2":"New","9":"Old"}}`, w.files[domain.TableTextData])
	res := p.Results()[domain.TableTextData]
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, 1, res.CarriedForward)
	assert.Equal(t, 2, res.Entries())
}

func TestPipeline_PreferSnapshot(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.nested[domain.TableTextData] = []domain.NestedRow{
		{Outer: 1, Inner: 2, Text: "New"},
		{Outer: 1, Inner: 3, Text: "Fresh"},
	}
	snaps := &fakeSnapshots{nested: map[domain.Table]*orderedmap.Nested{
		domain.TableTextData: nested(domain.NestedRow{Outer: 1, Inner: 2, Text: "Old"}),
	}}
	w := newFakeWriter()

	p := NewPipeline(discardLogger(), src, nil, snaps, w, Config{Policy: PolicyPreferSnapshot})
	require.NoError(t, p.Run(context.Background(), []domain.Table{domain.TableTextData}))

	assert.Equal(t, `{"1":{"2":"Old","3":"Fresh"}}`, w.files[domain.TableTextData])
	res := p.Results()[domain.TableTextData]
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.CarriedForward)
}

func TestPipeline_FailedTableDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.errs[domain.TableCharacterSystemText] = domain.NewTableError(
		domain.TableCharacterSystemText,
		fmt.Errorf("%w: no such table", domain.ErrQueryPrepare),
	)
	src.nested[domain.TableTextData] = []domain.NestedRow{{Outer: 1, Inner: 1, Text: "a"}}
	src.flat[domain.TableRaceJikkyoComment] = []domain.FlatRow{{ID: 1, Text: "b"}}
	src.flat[domain.TableRaceJikkyoMessage] = []domain.FlatRow{{ID: 2, Text: "c"}}
	w := newFakeWriter()

	p := NewPipeline(discardLogger(), src, nil, nil, w, Config{})
	require.NoError(t, p.Run(context.Background(), nil))

	assert.True(t, p.HasErrors())
	assert.Len(t, w.files, 3)
	assert.NotContains(t, w.files, domain.TableCharacterSystemText)

	res := p.Results()[domain.TableCharacterSystemText]
	assert.ErrorIs(t, res.Err, domain.ErrQueryPrepare)
	assert.False(t, res.Written)
}

func TestPipeline_WriteFailure(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.nested[domain.TableTextData] = []domain.NestedRow{{Outer: 1, Inner: 1, Text: "a"}}
	w := newFakeWriter()
	w.failFor = domain.TableTextData

	p := NewPipeline(discardLogger(), src, nil, nil, w, Config{})
	require.NoError(t, p.Run(context.Background(), []domain.Table{domain.TableTextData}))

	var te *domain.TableError
	require.ErrorAs(t, p.Results()[domain.TableTextData].Err, &te)
	assert.Equal(t, domain.TableTextData, te.Table)
}

func TestPipeline_FlatSnapshotOptIn(t *testing.T) {
	t.Parallel()

	newSnaps := func() *fakeSnapshots {
		return &fakeSnapshots{flat: map[domain.Table]*orderedmap.Flat{
			domain.TableRaceJikkyoComment: flat(domain.FlatRow{ID: 7, Text: "Old"}),
		}}
	}
	src := newFakeSource()
	src.flat[domain.TableRaceJikkyoComment] = []domain.FlatRow{{ID: 1, Text: "New"}}
	tables := []domain.Table{domain.TableRaceJikkyoComment}

	t.Run("off", func(t *testing.T) {
		t.Parallel()
		snaps, w := newSnaps(), newFakeWriter()
		p := NewPipeline(discardLogger(), src, nil, snaps, w, Config{})
		require.NoError(t, p.Run(context.Background(), tables))
		assert.Equal(t, `{"1":"New"}`, w.files[domain.TableRaceJikkyoComment])
		assert.Zero(t, snaps.flatCalls)
	})

	t.Run("on", func(t *testing.T) {
		t.Parallel()
		snaps, w := newSnaps(), newFakeWriter()
		p := NewPipeline(discardLogger(), src, nil, snaps, w, Config{SnapshotFlatTables: true})
		require.NoError(t, p.Run(context.Background(), tables))
		assert.Equal(t, `{"1":"New","7":"Old"}`, w.files[domain.TableRaceJikkyoComment])
	})
}

func TestPipeline_DryRun(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.nested[domain.TableTextData] = []domain.NestedRow{{Outer: 1, Inner: 1, Text: "a"}}
	w := newFakeWriter()

	p := NewPipeline(discardLogger(), src, nil, nil, w, Config{DryRun: true})
	require.NoError(t, p.Run(context.Background(), []domain.Table{domain.TableTextData}))

	assert.Empty(t, w.files)
	res := p.Results()[domain.TableTextData]
	assert.Equal(t, 1, res.Rows)
	assert.False(t, res.Written)
}

func TestPipeline_OnlyRequestedTables(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	w := newFakeWriter()

	p := NewPipeline(discardLogger(), src, nil, nil, w, Config{})
	require.NoError(t, p.Run(context.Background(), []domain.Table{domain.TableRaceJikkyoMessage}))

	assert.Len(t, p.Results(), 1)
	assert.Equal(t, `{}`, w.files[domain.TableRaceJikkyoMessage])
}

func TestPipeline_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(discardLogger(), newFakeSource(), nil, nil, newFakeWriter(), Config{})
	err := p.Run(ctx, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.Results())
}
