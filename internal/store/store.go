// Package store persists battle verdicts for later inspection.
package store

import (
	"context"
	"time"

	"github.com/pokearena/arena-cli/internal/battle"
)

// Record is a stored verdict with its persistence metadata.
type Record struct {
	Verdict   battle.Verdict `json:"verdict" yaml:"verdict"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
}

// Filter specifies criteria for listing stored verdicts.
type Filter struct {
	Contestant string `json:"contestant,omitempty"`
	Winner     string `json:"winner,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Store defines the verdict history persistence interface.
type Store interface {
	SaveVerdict(ctx context.Context, v battle.Verdict) error
	GetVerdict(ctx context.Context, runID string) (*Record, error)
	ListVerdicts(ctx context.Context, filter Filter) ([]Record, error)

	Migrate(ctx context.Context) error
	Close() error
}
