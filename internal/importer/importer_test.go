package importer_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
	"github.com/cory-johannsen/skirmish/internal/importer"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

// fakeStore records upserts in memory; names in existing hit the update path.
type fakeStore struct {
	existing map[string]bool
	created  []string
	updated  []string
}

func newFakeStore(existing ...string) *fakeStore {
	s := &fakeStore{existing: make(map[string]bool)}
	for _, name := range existing {
		s.existing[name] = true
	}
	return s
}

func (s *fakeStore) Create(_ context.Context, sheet *content.Monster) (*postgres.CharacterRecord, error) {
	if s.existing[sheet.Name] {
		return nil, postgres.ErrCharacterNameTaken
	}
	s.created = append(s.created, sheet.Name)
	return &postgres.CharacterRecord{ID: int64(len(s.created)), Name: sheet.Name, Sheet: *sheet}, nil
}

func (s *fakeStore) Update(_ context.Context, sheet *content.Monster) error {
	if !s.existing[sheet.Name] {
		return postgres.ErrCharacterNotFound
	}
	s.updated = append(s.updated, sheet.Name)
	return nil
}

func testRegistry(t *testing.T) *content.Registry {
	t.Helper()
	r := content.NewRegistry()
	require.NoError(t, r.RegisterRace(&content.Race{Name: "Human"}))
	require.NoError(t, r.RegisterClass(&content.Class{Name: "Soldier", HPMult: 10, MindMult: 4}))
	return r
}

func sheetJSON(name, race string) string {
	return fmt.Sprintf(`{
		"name": %q,
		"race": %q,
		"levels": {"Soldier": 2},
		"stats": {"STR": 16, "DEX": 14, "CON": 12, "INT": 10, "WIS": 13, "CHA": 8}
	}`, name, race)
}

func writeSheetDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestImporter_Run_StoresSheets(t *testing.T) {
	dir := writeSheetDir(t, map[string]string{
		"rask.json":  sheetJSON("Rask", "Human"),
		"vex.json":   sheetJSON("Vex", "Human"),
		"README.md":  "not a sheet",
		"notes.yaml": "also: not a sheet",
	})

	store := newFakeStore()
	imp := importer.New(testRegistry(t), store)
	require.NoError(t, imp.Run(context.Background(), dir))

	assert.ElementsMatch(t, []string{"Rask", "Vex"}, store.created)
	assert.Empty(t, store.updated)
}

func TestImporter_Run_UpdatesExisting(t *testing.T) {
	dir := writeSheetDir(t, map[string]string{
		"rask.json": sheetJSON("Rask", "Human"),
	})

	store := newFakeStore("Rask")
	imp := importer.New(testRegistry(t), store)
	require.NoError(t, imp.Run(context.Background(), dir))

	assert.Empty(t, store.created)
	assert.Equal(t, []string{"Rask"}, store.updated)
}

func TestImporter_Run_MissingDir(t *testing.T) {
	imp := importer.New(testRegistry(t), newFakeStore())
	err := imp.Run(context.Background(), "/nonexistent/dir")
	require.Error(t, err)
}

func TestImporter_Run_EmptyDir(t *testing.T) {
	dir := writeSheetDir(t, map[string]string{"README.md": "no sheets here"})
	imp := importer.New(testRegistry(t), newFakeStore())
	err := imp.Run(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sheet documents")
}

func TestImporter_Run_MalformedSheet(t *testing.T) {
	dir := writeSheetDir(t, map[string]string{
		"broken.json": `{"name": "Rask", "speed": 30}`,
	})

	imp := importer.New(testRegistry(t), newFakeStore())
	err := imp.Run(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.json")
}

func TestImporter_Run_DanglingRace(t *testing.T) {
	dir := writeSheetDir(t, map[string]string{
		"rask.json": sheetJSON("Rask", "Elf"),
	})

	imp := importer.New(testRegistry(t), newFakeStore())
	err := imp.Run(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `race "Elf" not registered`)
}

func TestImporter_Run_NameShadowsContent(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.RegisterMonster(&content.Monster{
		Name: "Rask", Race: "Human", Levels: map[string]int{"Soldier": 1},
		Stats: rules.AbilityScores{
			Strength: 10, Dexterity: 10, Constitution: 10,
			Intelligence: 10, Wisdom: 10, Charisma: 10,
		},
		TotalHands: 2, NumberOfAttacks: 1,
	}))

	dir := writeSheetDir(t, map[string]string{
		"rask.json": sheetJSON("Rask", "Human"),
	})

	imp := importer.New(r, newFakeStore())
	err := imp.Run(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

// TestImporter_Run_NoWritesOnValidationFailure verifies that a bad sheet in
// the batch keeps every sheet out of the store.
func TestImporter_Run_NoWritesOnValidationFailure(t *testing.T) {
	dir := writeSheetDir(t, map[string]string{
		"rask.json": sheetJSON("Rask", "Human"),
		"vex.json":  sheetJSON("Vex", "Elf"),
	})

	store := newFakeStore()
	imp := importer.New(testRegistry(t), store)
	require.Error(t, imp.Run(context.Background(), dir))

	assert.Empty(t, store.created)
	assert.Empty(t, store.updated)
}

// TestImporter_Run_NSheetsProducesNCreates verifies that a batch of N valid
// sheets stores exactly N records.
func TestImporter_Run_NSheetsProducesNCreates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(rt, "numSheets")

		files := make(map[string]string, n)
		for i := 0; i < n; i++ {
			files[fmt.Sprintf("sheet_%d.json", i)] = sheetJSON(fmt.Sprintf("Recruit %d", i), "Human")
		}
		dir := writeSheetDir(t, files)

		store := newFakeStore()
		imp := importer.New(testRegistry(t), store)
		require.NoError(t, imp.Run(context.Background(), dir))
		assert.Len(t, store.created, n)
	})
}
