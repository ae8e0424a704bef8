package postgres_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
	"github.com/cory-johannsen/skirmish/internal/testutil"
)

func setupEncounterRepo(t *testing.T) *postgres.EncounterRepository {
	t.Helper()
	return postgres.NewEncounterRepository(testutil.NewPool(t))
}

func makeTestReport() *combat.Report {
	return &combat.Report{
		EncounterID: "f3b9c2a1-0000-4000-8000-000000000001",
		Rounds:      2,
		Victor:      combat.SidePlayers,
		Survivors:   []string{"Rask"},
		Events: []combat.Event{
			{Round: 1, Narrative: "Round 1 begins."},
			{Round: 1, Actor: "Rask", Action: "Longsword", Narrative: "Rask hits Gutter Rat for 9 SLASHING."},
			{Round: 2, Narrative: "Round 2 begins."},
			{Round: 2, Actor: "Rask", Action: "Longsword", Narrative: "Rask fells Gutter Rat."},
			{Round: 2, Narrative: "The battle is over: Rask remain standing."},
		},
	}
}

func TestEncounterRepository_Save(t *testing.T) {
	repo := setupEncounterRepo(t)

	rec, err := repo.Save(context.Background(), "Roadside Ambush", 12345, makeTestReport())
	require.NoError(t, err)

	assert.Greater(t, rec.ID, int64(0))
	assert.Equal(t, "Roadside Ambush", rec.Scenario)
	assert.Equal(t, uint64(12345), rec.Seed)
	assert.Equal(t, 2, rec.Rounds)
	assert.Equal(t, combat.SidePlayers, rec.Victor)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestEncounterRepository_Save_NilReportPanics(t *testing.T) {
	repo := setupEncounterRepo(t)
	assert.PanicsWithValue(t, "postgres: Save requires a non-nil report", func() {
		_, _ = repo.Save(context.Background(), "Roadside Ambush", 1, nil)
	})
}

func TestEncounterRepository_GetByID(t *testing.T) {
	repo := setupEncounterRepo(t)
	ctx := context.Background()

	report := makeTestReport()
	saved, err := repo.Save(ctx, "Roadside Ambush", 12345, report)
	require.NoError(t, err)

	fetched, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, fetched.ID)
	assert.Equal(t, "Roadside Ambush", fetched.Scenario)
	assert.Equal(t, uint64(12345), fetched.Seed)
	assert.Equal(t, combat.SidePlayers, fetched.Victor)
	assert.Equal(t, *report, fetched.Report)
}

func TestEncounterRepository_GetByID_NotFound(t *testing.T) {
	repo := setupEncounterRepo(t)
	_, err := repo.GetByID(context.Background(), 99999999)
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrEncounterNotFound)
}

// TestEncounterRepository_SeedAboveInt64Range verifies that seeds past the
// signed range survive the BIGINT column through the bit-pattern cast.
func TestEncounterRepository_SeedAboveInt64Range(t *testing.T) {
	repo := setupEncounterRepo(t)
	ctx := context.Background()

	seed := uint64(math.MaxInt64) + 42
	saved, err := repo.Save(ctx, "Roadside Ambush", seed, makeTestReport())
	require.NoError(t, err)
	assert.Equal(t, seed, saved.Seed)

	fetched, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, seed, fetched.Seed)
}

func TestEncounterRepository_ListByScenario_NewestFirst(t *testing.T) {
	repo := setupEncounterRepo(t)
	ctx := context.Background()

	var ids []int64
	for seed := uint64(1); seed <= 3; seed++ {
		rec, err := repo.Save(ctx, "Toll Bridge", seed, makeTestReport())
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	_, err := repo.Save(ctx, "Roadside Ambush", 99, makeTestReport())
	require.NoError(t, err)

	recs, err := repo.ListByScenario(ctx, "Toll Bridge")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, ids[2], recs[0].ID)
	assert.Equal(t, ids[1], recs[1].ID)
	assert.Equal(t, ids[0], recs[2].ID)
	assert.Equal(t, uint64(3), recs[0].Seed)
}

func TestEncounterRepository_ListByScenario_Empty(t *testing.T) {
	repo := setupEncounterRepo(t)
	recs, err := repo.ListByScenario(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestEncounterRepository_Delete(t *testing.T) {
	repo := setupEncounterRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, "Roadside Ambush", 7, makeTestReport())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, saved.ID))

	_, err = repo.GetByID(ctx, saved.ID)
	assert.ErrorIs(t, err, postgres.ErrEncounterNotFound)
}

func TestEncounterRepository_Delete_NotFound(t *testing.T) {
	repo := setupEncounterRepo(t)
	err := repo.Delete(context.Background(), 99999999)
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrEncounterNotFound)
}

// TestEncounterRepository_Property_SeedRoundTrips verifies that any uint64
// seed, signed range or not, comes back from the database unchanged.
func TestEncounterRepository_Property_SeedRoundTrips(t *testing.T) {
	repo := postgres.NewEncounterRepository(testutil.NewPool(t))
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")

		saved, err := repo.Save(ctx, "Toll Bridge", seed, makeTestReport())
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, seed, fetched.Seed)
	})
}

// TestEncounterRepository_Property_ReportRoundTrips verifies that the stored
// JSONB report decodes back to the report that was saved.
func TestEncounterRepository_Property_ReportRoundTrips(t *testing.T) {
	repo := postgres.NewEncounterRepository(testutil.NewPool(t))
	ctx := context.Background()

	victors := []combat.Side{combat.SidePlayers, combat.SideEnemies, combat.SideNone}

	rapid.Check(t, func(rt *rapid.T) {
		report := makeTestReport()
		report.Rounds = rapid.IntRange(1, 50).Draw(rt, "rounds")
		report.Victor = victors[rapid.IntRange(0, 2).Draw(rt, "victor")]
		report.Survivors = rapid.SliceOfN(rapid.StringMatching(`[A-Z][a-z]{2,8}`), 0, 4).Draw(rt, "survivors")
		if len(report.Survivors) == 0 {
			report.Survivors = nil
		}

		saved, err := repo.Save(ctx, "Toll Bridge", 1, report)
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, *report, fetched.Report)
	})
}
