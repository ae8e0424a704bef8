// Package importer loads character sheet documents into the campaign
// database, validating every cross-reference against loaded content first.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

// Store persists imported sheets. *postgres.CharacterRepository satisfies it.
type Store interface {
	Create(ctx context.Context, sheet *content.Monster) (*postgres.CharacterRecord, error)
	Update(ctx context.Context, sheet *content.Monster) error
}

// Importer reads sheet documents and upserts them through a Store. Imported
// sheets are registered into the content registry, so every race, class,
// and gear reference is resolved before anything is written.
type Importer struct {
	registry *content.Registry
	store    Store
}

// New constructs an Importer over loaded content.
//
// Precondition: registry and store must be non-nil.
func New(registry *content.Registry, store Store) *Importer {
	return &Importer{registry: registry, store: store}
}

// Run reads every .json sheet in sheetsDir, validates the batch, and upserts
// each sheet. A sheet whose name is already stored is updated in place. No
// sheet is written until the whole batch resolves.
//
// Precondition: sheetsDir must exist and contain at least one sheet.
// Postcondition: every sheet is stored, or an error names the first failure.
func (imp *Importer) Run(ctx context.Context, sheetsDir string) error {
	overall := time.Now()

	entries, err := os.ReadDir(sheetsDir)
	if err != nil {
		return fmt.Errorf("reading sheet directory %s: %w", sheetsDir, err)
	}

	var sheets []*content.Monster
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(sheetsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading sheet %s: %w", path, err)
		}
		var sheet content.Monster
		if err := json.Unmarshal(data, &sheet); err != nil {
			return fmt.Errorf("parsing sheet %s: %w", path, err)
		}
		sheets = append(sheets, &sheet)
	}
	if len(sheets) == 0 {
		return fmt.Errorf("no sheet documents in %s", sheetsDir)
	}
	fmt.Printf("parsed  %d sheet(s) in %s\n", len(sheets), time.Since(overall).Round(time.Millisecond))

	// A name collision here means the sheet shadows file-loaded content or
	// another sheet in the batch.
	for _, sheet := range sheets {
		if err := imp.registry.RegisterMonster(sheet); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
	}
	if err := imp.registry.Finalize(); err != nil {
		return err
	}

	for _, sheet := range sheets {
		t1 := time.Now()
		verb := "created"
		_, err := imp.store.Create(ctx, sheet)
		if errors.Is(err, postgres.ErrCharacterNameTaken) {
			verb = "updated"
			err = imp.store.Update(ctx, sheet)
		}
		if err != nil {
			return fmt.Errorf("storing sheet %q: %w", sheet.Name, err)
		}
		fmt.Printf("stored  %s  (%s)  in %s\n", sheet.Name, verb, time.Since(t1).Round(time.Millisecond))
	}

	fmt.Printf("total   %s\n", time.Since(overall).Round(time.Millisecond))
	return nil
}
