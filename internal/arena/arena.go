// Package arena orchestrates one judgment run: discover the data
// service's capabilities, fetch both contestants concurrently, evaluate
// them, and assemble the verdict with provenance.
package arena

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pokearena/arena-cli/internal/battle"
	"github.com/pokearena/arena-cli/internal/resilience"
	"github.com/pokearena/arena-cli/pkg/pokedex"
)

// Config bounds one judgment run.
type Config struct {
	// OverallDeadline is the hard budget for the acquisition phase.
	OverallDeadline time.Duration
	// Retry governs each fetch agent's invocation attempts.
	Retry resilience.RetryConfig
}

// Arena ties the capability resolver, fetch agents, and engine together.
type Arena struct {
	service  pokedex.Service
	engine   *battle.Engine
	fetcher  *Fetcher
	deadline time.Duration
}

// New creates an arena over the given data service and engine.
func New(service pokedex.Service, engine *battle.Engine, cfg Config) *Arena {
	deadline := cfg.OverallDeadline
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	return &Arena{
		service:  service,
		engine:   engine,
		fetcher:  NewFetcher(service, cfg.Retry),
		deadline: deadline,
	}
}

// Judge resolves the contest between nameA and nameB. Capabilities are
// re-discovered on every call; the service is treated as stable within a
// single run. Self-battles are permitted and deterministic.
func (a *Arena) Judge(ctx context.Context, nameA, nameB string) (*battle.Verdict, error) {
	idA := NormalizeIdentifier(nameA)
	idB := NormalizeIdentifier(nameB)
	if idA == "" || idB == "" {
		return nil, eris.New("arena: two non-empty identifiers required")
	}

	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("side_a", idA),
		zap.String("side_b", idB),
	)
	log.Info("judgment run started")

	capabilities, err := a.service.Capabilities(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "arena: discover capabilities")
	}
	capability, err := ResolveCapability(capabilities)
	if err != nil {
		return nil, err
	}
	log.Debug("capability resolved",
		zap.String("capability", capability.Name),
		zap.Int("advertised", len(capabilities)),
	)

	recA, recB, err := a.acquire(ctx, capability, idA, idB)
	if err != nil {
		log.Warn("acquisition failed", zap.Error(err))
		return nil, err
	}

	verdict := a.engine.Evaluate(recA, recB)
	verdict.RunID = runID
	verdict.Sources = []string{recA.Provenance, recB.Provenance}

	log.Info("judgment run complete",
		zap.String("winner", string(verdict.Winner)),
		zap.Float64("score_a_vs_b", verdict.ScoreAvsB),
		zap.Float64("score_b_vs_a", verdict.ScoreBvsA),
		zap.Float64("confidence", verdict.Confidence),
	)
	return &verdict, nil
}
