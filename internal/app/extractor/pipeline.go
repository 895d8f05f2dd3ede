package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/mastertext/internal/domain"
	"github.com/heartmarshall/mastertext/internal/orderedmap"
)

// Config holds pipeline settings.
type Config struct {
	Policy MergePolicy
	// SnapshotFlatTables merges snapshots into the flat tables too. Off by
	// default: only nested tables carry entries forward.
	SnapshotFlatTables bool
	// DryRun builds every table but writes nothing.
	DryRun bool
}

// TableResult holds the outcome of extracting a single table.
type TableResult struct {
	MergeStats
	Written  bool
	Duration time.Duration
	Err      error
}

// Pipeline extracts the text tables one after another. A failing table is
// recorded and logged, the remaining tables still run.
type Pipeline struct {
	log       *slog.Logger
	source    TextSource
	resolver  TextResolver
	snapshots SnapshotStore
	writer    TableWriter
	cfg       Config
	results   map[domain.Table]TableResult
}

// NewPipeline creates a new Pipeline. resolver and snapshots may be nil.
func NewPipeline(
	log *slog.Logger,
	source TextSource,
	resolver TextResolver,
	snapshots SnapshotStore,
	writer TableWriter,
	cfg Config,
) *Pipeline {
	if cfg.Policy == "" {
		cfg.Policy = PolicyCarryForward
	}
	return &Pipeline{
		log:       log,
		source:    source,
		resolver:  resolver,
		snapshots: snapshots,
		writer:    writer,
		cfg:       cfg,
		results:   make(map[domain.Table]TableResult),
	}
}

// Results returns table results after Run completes.
func (p *Pipeline) Results() map[domain.Table]TableResult {
	return p.results
}

// HasErrors returns true if any table failed.
func (p *Pipeline) HasErrors() bool {
	for _, r := range p.results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Run extracts tables in the given order; an empty list means every table.
// The only error returned is a cancelled context.
func (p *Pipeline) Run(ctx context.Context, tables []domain.Table) error {
	if len(tables) == 0 {
		tables = domain.AllTables
	}

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		result := p.runTable(ctx, table)
		result.Duration = time.Since(start)
		p.results[table] = result

		if result.Err != nil {
			p.logFailure(table, result)
			continue
		}
		p.log.Info("table extracted",
			slog.String("table", table.String()),
			slog.Int("rows", result.Rows),
			slog.Int("resolved", result.Resolved),
			slog.Int("duplicates", result.Duplicates),
			slog.Int("carried_forward", result.CarriedForward),
			slog.Int("entries", result.Entries()),
			slog.Bool("written", result.Written),
			slog.Duration("duration", result.Duration),
		)
	}

	failed := 0
	for _, r := range p.results {
		if r.Err != nil {
			failed++
		}
	}
	p.log.Info("extraction completed",
		slog.Int("tables_run", len(tables)),
		slog.Int("tables_failed", failed),
		slog.Bool("dry_run", p.cfg.DryRun),
	)
	return nil
}

func (p *Pipeline) logFailure(table domain.Table, result TableResult) {
	msg := "table failed"
	if errors.Is(result.Err, domain.ErrQueryPrepare) {
		msg = "failed to prepare statement"
	}
	p.log.Warn(msg,
		slog.String("table", table.String()),
		slog.String("error", result.Err.Error()),
		slog.Duration("duration", result.Duration),
	)
}

func (p *Pipeline) runTable(ctx context.Context, table domain.Table) TableResult {
	var (
		data  json.Marshaler
		stats MergeStats
		err   error
	)

	switch table.Shape() {
	case domain.ShapeNested:
		var out *orderedmap.Nested
		out, stats, err = MergeNested(func(fn func(domain.NestedRow) error) error {
			return p.source.ScanNested(ctx, table, fn)
		}, p.resolver, p.nestedSnapshot(table), p.cfg.Policy)
		data = out
	case domain.ShapeFlat:
		var out *orderedmap.Flat
		out, stats, err = MergeFlat(func(fn func(domain.FlatRow) error) error {
			return p.source.ScanFlat(ctx, table, fn)
		}, p.resolver, p.flatSnapshot(table), p.cfg.Policy)
		data = out
	default:
		err = domain.NewTableError(table, errors.New("unknown table"))
	}

	result := TableResult{MergeStats: stats}
	if err != nil {
		result.Err = err
		return result
	}
	if p.cfg.DryRun {
		return result
	}
	if err := p.writer.WriteTable(ctx, table, data); err != nil {
		result.Err = domain.NewTableError(table, fmt.Errorf("write: %w", err))
		return result
	}
	result.Written = true
	return result
}

func (p *Pipeline) nestedSnapshot(table domain.Table) *orderedmap.Nested {
	if p.snapshots == nil {
		return nil
	}
	return p.snapshots.LoadNested(table)
}

func (p *Pipeline) flatSnapshot(table domain.Table) *orderedmap.Flat {
	if p.snapshots == nil || !p.cfg.SnapshotFlatTables {
		return nil
	}
	return p.snapshots.LoadFlat(table)
}
