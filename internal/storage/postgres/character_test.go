package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
	"github.com/cory-johannsen/skirmish/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func setupCharacterRepo(t *testing.T) *postgres.CharacterRepository {
	t.Helper()
	return postgres.NewCharacterRepository(testutil.NewPool(t))
}

func makeTestSheet(name string) *content.Monster {
	return &content.Monster{
		Name:        name,
		Description: "A road-worn sellsword.",
		Race:        "Human",
		Levels:      map[string]int{"Soldier": 2},
		Stats: rules.AbilityScores{
			Strength: 16, Dexterity: 14, Constitution: 12,
			Intelligence: 10, Wisdom: 13, Charisma: 8,
		},
		SpellcastingAbility: rules.AbilityWisdom,
		TotalHands:          2,
		NumberOfAttacks:     1,
		Resistances:         []rules.DamageType{rules.DamageFire},
		Armors:              []string{"Leather Jerkin"},
		Weapons:             []string{"Torch"},
		Actions:             []string{"Longsword"},
	}
}

func TestCharacterRepository_Create(t *testing.T) {
	repo := setupCharacterRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestSheet("Rask"))
	require.NoError(t, err)

	assert.Greater(t, created.ID, int64(0))
	assert.Equal(t, "Rask", created.Name)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	assert.Equal(t, "Human", created.Sheet.Race)
	assert.Equal(t, 2, created.Sheet.Levels["Soldier"])
	assert.Equal(t, 16, created.Sheet.Stats.Strength)
	assert.Equal(t, []string{"Longsword"}, created.Sheet.Actions)
}

func TestCharacterRepository_Create_InvalidSheet(t *testing.T) {
	repo := setupCharacterRepo(t)

	sheet := makeTestSheet("Rask")
	sheet.Race = ""
	_, err := repo.Create(context.Background(), sheet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "race must not be empty")
}

func TestCharacterRepository_Create_DuplicateNameError(t *testing.T) {
	repo := setupCharacterRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeTestSheet("Rask"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, makeTestSheet("Rask"))
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrCharacterNameTaken)
}

func TestCharacterRepository_GetByName(t *testing.T) {
	repo := setupCharacterRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestSheet("Vex"))
	require.NoError(t, err)

	fetched, err := repo.GetByName(ctx, "Vex")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Vex", fetched.Name)
	assert.Equal(t, 14, fetched.Sheet.Stats.Dexterity)
}

func TestCharacterRepository_GetByName_NotFound(t *testing.T) {
	repo := setupCharacterRepo(t)
	_, err := repo.GetByName(context.Background(), "Nobody")
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}

func TestCharacterRepository_List_OrderedByName(t *testing.T) {
	repo := setupCharacterRepo(t)
	ctx := context.Background()

	for _, name := range []string{"Vex", "Anya", "Rask"} {
		_, err := repo.Create(ctx, makeTestSheet(name))
		require.NoError(t, err)
	}

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Anya", recs[0].Name)
	assert.Equal(t, "Rask", recs[1].Name)
	assert.Equal(t, "Vex", recs[2].Name)
}

func TestCharacterRepository_List_Empty(t *testing.T) {
	repo := setupCharacterRepo(t)
	recs, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestCharacterRepository_Update(t *testing.T) {
	repo := setupCharacterRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeTestSheet("Rask"))
	require.NoError(t, err)

	sheet := makeTestSheet("Rask")
	sheet.Levels = map[string]int{"Soldier": 3}
	sheet.Stats.Strength = 17
	sheet.Actions = []string{"Longsword", "Shield Bash"}
	require.NoError(t, repo.Update(ctx, sheet))

	fetched, err := repo.GetByName(ctx, "Rask")
	require.NoError(t, err)
	assert.Equal(t, 3, fetched.Sheet.Levels["Soldier"])
	assert.Equal(t, 17, fetched.Sheet.Stats.Strength)
	assert.Equal(t, []string{"Longsword", "Shield Bash"}, fetched.Sheet.Actions)
}

func TestCharacterRepository_Update_NotFound(t *testing.T) {
	repo := setupCharacterRepo(t)
	err := repo.Update(context.Background(), makeTestSheet("Nobody"))
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}

func TestCharacterRepository_Update_InvalidSheet(t *testing.T) {
	repo := setupCharacterRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeTestSheet("Rask"))
	require.NoError(t, err)

	sheet := makeTestSheet("Rask")
	sheet.NumberOfAttacks = 0
	err = repo.Update(ctx, sheet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "number of attacks must be positive")
}

func TestCharacterRepository_Delete(t *testing.T) {
	repo := setupCharacterRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeTestSheet("Rask"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "Rask"))

	_, err = repo.GetByName(ctx, "Rask")
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}

func TestCharacterRepository_Delete_NotFound(t *testing.T) {
	repo := setupCharacterRepo(t)
	err := repo.Delete(context.Background(), "Nobody")
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrCharacterNotFound)
}

// TestCharacterRepository_SheetRoundTrip verifies that a fully populated
// statblock survives the JSONB column byte for byte: the stored document is
// decoded by the same strict reader the content loader uses.
func TestCharacterRepository_SheetRoundTrip(t *testing.T) {
	repo := setupCharacterRepo(t)
	ctx := context.Background()

	sheet := makeTestSheet("Vex")
	sheet.Vulnerabilities = []rules.DamageType{rules.DamageForce}
	sheet.Immunities = []rules.DamageType{rules.DamagePiercing}
	sheet.Spells = []string{"Firebolt"}
	sheet.TotalHands = 3
	sheet.NumberOfAttacks = 2

	_, err := repo.Create(ctx, sheet)
	require.NoError(t, err)

	fetched, err := repo.GetByName(ctx, "Vex")
	require.NoError(t, err)
	assert.Equal(t, *sheet, fetched.Sheet)
}

// setupCharacterRepoShared creates a single pool for use across rapid
// iterations within one property test. Iterations isolate themselves with
// unique sheet names instead of spawning a container each.
func setupCharacterRepoShared(t *testing.T) *postgres.CharacterRepository {
	t.Helper()
	return postgres.NewCharacterRepository(testutil.NewPool(t))
}

// TestCharacterRepository_Property_CreateThenGetByName verifies that for any
// valid score spread, Create followed by GetByName returns the sheet that
// was stored.
func TestCharacterRepository_Property_CreateThenGetByName(t *testing.T) {
	repo := setupCharacterRepoShared(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		name := uniqueName(rapid.StringMatching(`[A-Za-z][a-z]{2,10}`).Draw(rt, "name"))
		sheet := makeTestSheet(name)
		sheet.Stats = rules.AbilityScores{
			Strength:     rapid.IntRange(1, 30).Draw(rt, "str"),
			Dexterity:    rapid.IntRange(1, 30).Draw(rt, "dex"),
			Constitution: rapid.IntRange(1, 30).Draw(rt, "con"),
			Intelligence: rapid.IntRange(1, 30).Draw(rt, "int"),
			Wisdom:       rapid.IntRange(1, 30).Draw(rt, "wis"),
			Charisma:     rapid.IntRange(1, 30).Draw(rt, "cha"),
		}
		sheet.TotalHands = rapid.IntRange(0, 4).Draw(rt, "hands")
		sheet.NumberOfAttacks = rapid.IntRange(1, 4).Draw(rt, "attacks")

		_, err := repo.Create(ctx, sheet)
		require.NoError(t, err)

		fetched, err := repo.GetByName(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, *sheet, fetched.Sheet)
	})
}

// TestCharacterRepository_Property_DuplicateNameAlwaysErrors verifies that
// storing two sheets under the same name always returns ErrCharacterNameTaken.
func TestCharacterRepository_Property_DuplicateNameAlwaysErrors(t *testing.T) {
	repo := setupCharacterRepoShared(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		name := uniqueName(rapid.StringMatching(`[A-Za-z][a-z]{2,10}`).Draw(rt, "name"))

		_, err := repo.Create(ctx, makeTestSheet(name))
		require.NoError(t, err)

		_, err = repo.Create(ctx, makeTestSheet(name))
		require.Error(t, err)
		assert.ErrorIs(t, err, postgres.ErrCharacterNameTaken)
	})
}
