package arena

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/pokearena/arena-cli/internal/battle"
	"github.com/pokearena/arena-cli/pkg/pokedex"
)

// acquire runs both fetches concurrently under the overall deadline and
// returns the records in caller order: side A first, always, regardless of
// which fetch finished first. Any per-side failure fails the whole run;
// partial results are never handed to the engine.
func (a *Arena) acquire(ctx context.Context, capability pokedex.Capability, nameA, nameB string) (battle.AttributeSet, battle.AttributeSet, error) {
	ctx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	// Each side gets two-thirds of the overall budget, nested inside it.
	perSide := a.deadline * 2 / 3

	sides := [2]struct {
		side Side
		name string
	}{
		{SideA, nameA},
		{SideB, nameB},
	}

	// Isolated result slots; merged only after both goroutines terminate.
	var records [2]battle.AttributeSet

	g, gctx := errgroup.WithContext(ctx)
	for i := range sides {
		g.Go(func() error {
			sctx, scancel := context.WithTimeout(gctx, perSide)
			defer scancel()

			rec, err := a.fetcher.Fetch(sctx, sides[i].name, capability)
			if err != nil {
				return &OrchestrationError{Side: sides[i].side, Err: err}
			}
			records[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Deadline exhaustion at either nesting level reports as timeout;
		// the per-side budget only exists as a slice of the overall one.
		var oerr *OrchestrationError
		if errors.As(err, &oerr) && errors.Is(err, context.DeadlineExceeded) {
			oerr.Timeout = true
		}
		return battle.AttributeSet{}, battle.AttributeSet{}, err
	}

	return records[0], records[1], nil
}
