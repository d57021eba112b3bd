package arena

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pokearena/arena-cli/internal/battle"
	"github.com/pokearena/arena-cli/pkg/pokedex"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestArena(svc pokedex.Service, deadline time.Duration) *Arena {
	return New(svc, battle.NewEngine(battle.NewMatrix()), Config{
		OverallDeadline: deadline,
		Retry:           fastRetry(),
	})
}

func judgeService() *fakeService {
	return &fakeService{
		caps: []pokedex.Capability{
			{Name: "get-type", Description: "Get information about a type"},
			{Name: "get-pokemon", Description: "Fetch a Pokémon by name", InputSchema: []string{"nameOrId"}},
		},
		responses: map[string][]byte{
			"squirtle":   []byte(`{"name":"squirtle","types":["water"],"base_total":314}`),
			"charmander": []byte(`{"name":"charmander","types":["fire"],"base_total":309}`),
		},
	}
}

func TestJudgeWaterVersusFire(t *testing.T) {
	ar := newTestArena(judgeService(), time.Second)

	v, err := ar.Judge(context.Background(), "Squirtle", "Charmander")
	require.NoError(t, err)

	assert.Equal(t, battle.WinnerSideA, v.Winner)
	assert.Equal(t, 2.0, v.ScoreAvsB)
	assert.Equal(t, 0.5, v.ScoreBvsA)
	assert.Equal(t, "squirtle", v.SideA.Identifier)
	assert.Equal(t, "charmander", v.SideB.Identifier)
	assert.Equal(t, []string{"get-pokemon", "get-pokemon"}, v.Sources)
	assert.NotEmpty(t, v.RunID)
}

func TestJudgePreservesSideOrderWhenBFinishesFirst(t *testing.T) {
	// Side A is slow, side B answers instantly; the verdict must still
	// report squirtle as side A.
	svc := judgeService()
	slow := &slowSideService{inner: svc, slowID: "squirtle", delay: 50 * time.Millisecond}
	ar := newTestArena(slow, 2*time.Second)

	v, err := ar.Judge(context.Background(), "squirtle", "charmander")
	require.NoError(t, err)

	assert.Equal(t, "squirtle", v.SideA.Identifier)
	assert.Equal(t, "charmander", v.SideB.Identifier)
	assert.Equal(t, battle.WinnerSideA, v.Winner)
}

func TestJudgeSelfBattleDraws(t *testing.T) {
	ar := newTestArena(judgeService(), time.Second)

	v, err := ar.Judge(context.Background(), "squirtle", "squirtle")
	require.NoError(t, err)

	assert.Equal(t, battle.WinnerDraw, v.Winner)
	assert.Equal(t, 0.50, v.Confidence)
}

func TestJudgeUnresolvableSideFailsRun(t *testing.T) {
	ar := newTestArena(judgeService(), time.Second)

	_, err := ar.Judge(context.Background(), "squirtle", "missingno")

	var oerr *OrchestrationError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, SideB, oerr.Side)

	var u *UnresolvableError
	assert.ErrorAs(t, err, &u)
	assert.Equal(t, "missingno", u.Identifier)
}

func TestJudgeOverallDeadlineTimesOut(t *testing.T) {
	svc := judgeService()
	svc.delay = 500 * time.Millisecond
	ar := newTestArena(svc, 50*time.Millisecond)

	start := time.Now()
	_, err := ar.Judge(context.Background(), "squirtle", "charmander")
	elapsed := time.Since(start)

	var oerr *OrchestrationError
	require.ErrorAs(t, err, &oerr)
	assert.True(t, oerr.Timeout, "expected timeout classification, got: %v", err)
	assert.Less(t, elapsed, 400*time.Millisecond, "deadline must cancel in-flight fetches")
}

func TestJudgeNoCapability(t *testing.T) {
	svc := judgeService()
	svc.caps = []pokedex.Capability{{Name: "weather", Description: "forecast"}}
	ar := newTestArena(svc, time.Second)

	_, err := ar.Judge(context.Background(), "squirtle", "charmander")
	assert.ErrorIs(t, err, ErrNoCapability)
	assert.Equal(t, 0, svc.invokeCount(), "no fetch may start without a capability")
}

func TestJudgeEmptyIdentifierRejectedBeforeDiscovery(t *testing.T) {
	svc := judgeService()
	ar := newTestArena(svc, time.Second)

	_, err := ar.Judge(context.Background(), "  ", "charmander")
	assert.Error(t, err)
	assert.Equal(t, 0, svc.invokeCount())
}

func TestJudgeBothFetchesRunConcurrently(t *testing.T) {
	svc := judgeService()
	svc.delay = 80 * time.Millisecond
	ar := newTestArena(svc, 2*time.Second)

	start := time.Now()
	_, err := ar.Judge(context.Background(), "squirtle", "charmander")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 160*time.Millisecond,
		"two 80ms fetches must overlap, not run back to back")
}

// slowSideService delays only one identifier's invoke.
type slowSideService struct {
	inner  *fakeService
	slowID string
	delay  time.Duration
}

func (s *slowSideService) Capabilities(ctx context.Context) ([]pokedex.Capability, error) {
	return s.inner.Capabilities(ctx)
}

func (s *slowSideService) Invoke(ctx context.Context, capability string, args map[string]any) ([]byte, error) {
	for _, v := range args {
		if id, ok := v.(string); ok && id == s.slowID {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}
	return s.inner.Invoke(ctx, capability, args)
}

func (s *slowSideService) Close() error { return s.inner.Close() }
