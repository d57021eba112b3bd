package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokearena/arena-cli/internal/battle"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testVerdict(sideA, sideB string, winner battle.Winner) battle.Verdict {
	power := 314
	return battle.Verdict{
		RunID:      uuid.NewString(),
		Winner:     winner,
		ScoreAvsB:  2.0,
		ScoreBvsA:  0.5,
		Confidence: 0.73,
		Reasoning:  sideA + " hits hard",
		SideA:      battle.AttributeSet{Identifier: sideA, Categories: []string{"water"}, PowerTotal: &power, Provenance: "get-pokemon"},
		SideB:      battle.AttributeSet{Identifier: sideB, Categories: []string{"fire"}, Provenance: "get-pokemon"},
		Sources:    []string{"get-pokemon", "get-pokemon"},
	}
}

func TestSaveAndGetVerdict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := testVerdict("squirtle", "charmander", battle.WinnerSideA)
	require.NoError(t, s.SaveVerdict(ctx, v))

	rec, err := s.GetVerdict(ctx, v.RunID)
	require.NoError(t, err)

	assert.Equal(t, v.RunID, rec.Verdict.RunID)
	assert.Equal(t, battle.WinnerSideA, rec.Verdict.Winner)
	assert.Equal(t, "squirtle", rec.Verdict.SideA.Identifier)
	require.NotNil(t, rec.Verdict.SideA.PowerTotal)
	assert.Equal(t, 314, *rec.Verdict.SideA.PowerTotal)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestSaveVerdictRejectsMissingRunID(t *testing.T) {
	s := newTestStore(t)

	v := testVerdict("a", "b", battle.WinnerDraw)
	v.RunID = ""
	assert.Error(t, s.SaveVerdict(context.Background(), v))
}

func TestSaveVerdictRejectsDuplicateRunID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := testVerdict("squirtle", "charmander", battle.WinnerSideA)
	require.NoError(t, s.SaveVerdict(ctx, v))
	assert.Error(t, s.SaveVerdict(ctx, v))
}

func TestGetVerdictNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetVerdict(context.Background(), uuid.NewString())
	assert.Error(t, err)
}

func TestListVerdicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveVerdict(ctx, testVerdict("squirtle", "charmander", battle.WinnerSideA)))
	require.NoError(t, s.SaveVerdict(ctx, testVerdict("gengar", "machamp", battle.WinnerSideA)))
	require.NoError(t, s.SaveVerdict(ctx, testVerdict("ditto", "ditto", battle.WinnerDraw)))

	all, err := s.ListVerdicts(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byContestant, err := s.ListVerdicts(ctx, Filter{Contestant: "charmander"})
	require.NoError(t, err)
	require.Len(t, byContestant, 1)
	assert.Equal(t, "squirtle", byContestant[0].Verdict.SideA.Identifier)

	draws, err := s.ListVerdicts(ctx, Filter{Winner: string(battle.WinnerDraw)})
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, "ditto", draws[0].Verdict.SideA.Identifier)
}

func TestListVerdictsLimitAndOffset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for range 5 {
		require.NoError(t, s.SaveVerdict(ctx, testVerdict("squirtle", "charmander", battle.WinnerSideA)))
	}

	page, err := s.ListVerdicts(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := s.ListVerdicts(ctx, Filter{Limit: 10, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
