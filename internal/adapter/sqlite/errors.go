package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/heartmarshall/mastertext/internal/domain"
)

// mapError wraps a driver error with the domain sentinel for the stage it
// happened in. Context errors pass through unchanged in the chain.
func mapError(err error, table domain.Table, stage error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewTableError(table, err)
	}
	return domain.NewTableError(table, fmt.Errorf("%w: %w", stage, err))
}
