// Command extract dumps the localized text tables of a master database into
// one JSON file per table, optionally replacing texts through a hash-keyed
// localization dictionary and carrying forward entries from a previous run.
//
// Usage:
//
//	extract [flags] <masterDatabasePath> <outputDir> [hashDictDir] [oldExtractedDir]
//
// Flags:
//
//	-config    path to YAML config file (default: CONFIG_PATH env)
//	-tables    comma-separated tables to extract (default: all)
//	-dry-run   extract without writing output files
//	-version   print version and exit
//
// Positional arguments override the configured paths. With no positional
// arguments, source.database_path and output.dir must come from config.
//
// Exit codes: 0 = success, 1 = usage error, unreadable database, or output
// directory that cannot be created. Failed tables do not change the exit
// code unless extract.fail_on_table_error is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"github.com/heartmarshall/mastertext/internal/app"
	"github.com/heartmarshall/mastertext/internal/config"
	"github.com/heartmarshall/mastertext/pkg/ctxutil"
)

const usageLine = "usage: extract [flags] <masterDatabasePath> <outputDir> [hashDictDir] [oldExtractedDir]"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usageLine)
		fs.PrintDefaults()
	}
	configFlag := fs.String("config", "", "path to YAML config file")
	tablesFlag := fs.String("tables", "", "comma-separated tables to extract (default: all)")
	dryRunFlag := fs.Bool("dry-run", false, "extract without writing output files")
	versionFlag := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if *versionFlag {
		fmt.Fprintln(stdout, app.BuildVersion())
		return 0
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		bootstrapLogger(stdout).Error("load config", slog.String("error", err.Error()))
		return 1
	}

	// CLI overrides config.
	if err := cfg.ApplyArgs(fs.Args()); err != nil {
		bootstrapLogger(stdout).Error("invalid arguments", slog.String("error", err.Error()))
		fs.Usage()
		return 1
	}
	if *tablesFlag != "" {
		cfg.Extract.Tables = *tablesFlag
	}
	if *dryRunFlag {
		cfg.Extract.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		bootstrapLogger(stdout).Error("invalid configuration", slog.String("error", err.Error()))
		fs.Usage()
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = ctxutil.WithRunID(ctx, uuid.New())

	logger := app.NewLogger(cfg.Log, stdout)

	pipeline, err := app.Run(ctx, cfg, logger)
	if err != nil {
		logger.Error("extraction failed", slog.String("error", err.Error()))
		return 1
	}

	if pipeline.HasErrors() {
		if cfg.Extract.FailOnTableError {
			logger.Error("extraction completed with errors")
			return 1
		}
		logger.Warn("extraction completed with errors")
		return 0
	}

	logger.Info("extraction completed successfully")
	return 0
}

// bootstrapLogger logs failures that happen before the configured logger exists.
func bootstrapLogger(w io.Writer) *slog.Logger {
	return app.NewLogger(config.LogConfig{Level: "info", Format: "text"}, w)
}
