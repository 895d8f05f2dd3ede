package config

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/mastertext/internal/app/extractor"
	"github.com/heartmarshall/mastertext/internal/domain"
	"github.com/heartmarshall/mastertext/internal/textdict"
)

// Validate checks the merged configuration. Every failure wraps
// domain.ErrUsage.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUsage, err)
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Source.DatabasePath) == "" {
		return fmt.Errorf("source.database_path is required")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir is required")
	}

	if !textdict.IsKnownAlgorithm(c.Dictionary.HashAlgorithm) {
		return fmt.Errorf("dictionary.hash_algorithm: unknown algorithm %q", c.Dictionary.HashAlgorithm)
	}

	if _, err := extractor.ParseMergePolicy(c.Snapshot.Policy); err != nil {
		return fmt.Errorf("snapshot.policy: %w", err)
	}

	if _, unknown := domain.ParseTables(c.Extract.Tables); len(unknown) > 0 {
		return fmt.Errorf("extract.tables: unknown tables %s", strings.Join(unknown, ", "))
	}

	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Tables returns the tables selected for extraction in canonical order.
func (c *Config) Tables() []domain.Table {
	tables, _ := domain.ParseTables(c.Extract.Tables)
	return tables
}

func (l LogConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be debug, info, warn or error (got %q)", l.Level)
	}
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json (got %q)", l.Format)
	}
	return nil
}
