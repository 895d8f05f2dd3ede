package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/heartmarshall/mastertext/internal/adapter/jsonfile"
	"github.com/heartmarshall/mastertext/internal/adapter/sqlite"
	"github.com/heartmarshall/mastertext/internal/app/extractor"
	"github.com/heartmarshall/mastertext/internal/config"
	"github.com/heartmarshall/mastertext/internal/textdict"
	"github.com/heartmarshall/mastertext/pkg/ctxutil"
)

// Compile-time interface assertions.
var (
	_ extractor.TextSource    = (*sqlite.Source)(nil)
	_ extractor.TextResolver  = (*textdict.Resolver)(nil)
	_ extractor.SnapshotStore = (*jsonfile.SnapshotReader)(nil)
	_ extractor.TableWriter   = (*jsonfile.Writer)(nil)
)

// Run performs one extraction with a validated configuration. A returned
// error is fatal for the process; per-table failures are reported through
// the pipeline's results instead.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*extractor.Pipeline, error) {
	if id, ok := ctxutil.RunIDFromCtx(ctx); ok {
		logger = logger.With(slog.String("run_id", id.String()))
	}

	logger.Info("starting extraction",
		slog.String("version", BuildVersion()),
		slog.String("database", cfg.Source.DatabasePath),
		slog.String("output_dir", cfg.Output.Dir),
		slog.String("dictionary_dir", cfg.Dictionary.Dir),
		slog.String("snapshot_dir", cfg.Snapshot.Dir),
	)

	db, err := sqlite.Open(ctx, cfg.Source.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if !cfg.Extract.DryRun {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	policy, err := extractor.ParseMergePolicy(cfg.Snapshot.Policy)
	if err != nil {
		return nil, err
	}

	hasher, err := textdict.NewHasher(cfg.Dictionary.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	index, _ := textdict.NewLoader(logger).Load(cfg.Dictionary.Dir)
	resolver := textdict.NewResolver(index, hasher)

	writer, err := jsonfile.NewWriter(jsonfile.Options{
		Dir:    cfg.Output.Dir,
		Pretty: cfg.Output.Pretty,
		Atomic: !cfg.Output.InPlace,
	})
	if err != nil {
		return nil, err
	}

	pipeline := extractor.NewPipeline(
		logger,
		sqlite.NewSource(db),
		resolver,
		jsonfile.NewSnapshotReader(cfg.Snapshot.Dir, logger),
		writer,
		extractor.Config{
			Policy:             policy,
			SnapshotFlatTables: cfg.Snapshot.FlatTables,
			DryRun:             cfg.Extract.DryRun,
		},
	)
	if err := pipeline.Run(ctx, cfg.Tables()); err != nil {
		return pipeline, err
	}
	return pipeline, nil
}
