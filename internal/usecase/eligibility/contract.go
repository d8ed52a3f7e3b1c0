package eligibility

import (
	"context"

	"github.com/kailas-cloud/entsearch/internal/domain/entity"
)

// FlagSource yields the raw kill-switch hash: entity (or "*") -> bool string.
type FlagSource interface {
	Flags(ctx context.Context) (map[string]string, error)
}

// Definitions resolves entity definitions.
type Definitions interface {
	Get(name string) (entity.Definition, error)
}
