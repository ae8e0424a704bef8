package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/content"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// ErrCharacterNameTaken is returned when creating a character under a name
// that is already stored.
var ErrCharacterNameTaken = errors.New("character name already taken")

// CharacterRecord is one stored player sheet. The sheet is a statblock in
// content document form, so a loaded record registers like any other
// monster and scenario rosters can reference it by name.
type CharacterRecord struct {
	ID        int64
	Name      string
	Sheet     content.Monster
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CharacterRepository provides character sheet persistence.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create stores a new character sheet under its statblock name.
//
// Precondition: sheet must pass content validation.
// Postcondition: Returns the stored record with ID and timestamps set, or
// ErrCharacterNameTaken on a duplicate name.
func (r *CharacterRepository) Create(ctx context.Context, sheet *content.Monster) (*CharacterRecord, error) {
	if err := sheet.Validate(); err != nil {
		return nil, err
	}
	doc, err := json.Marshal(sheet)
	if err != nil {
		return nil, fmt.Errorf("encoding character sheet: %w", err)
	}

	var rec CharacterRecord
	var raw []byte
	err = r.db.QueryRow(ctx, `
		INSERT INTO characters (name, sheet)
		VALUES ($1, $2)
		RETURNING id, name, sheet, created_at, updated_at`,
		sheet.Name, doc,
	).Scan(&rec.ID, &rec.Name, &raw, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrCharacterNameTaken
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	if err := json.Unmarshal(raw, &rec.Sheet); err != nil {
		return nil, fmt.Errorf("decoding stored sheet %q: %w", rec.Name, err)
	}
	return &rec, nil
}

// GetByName retrieves a character sheet by its unique name.
//
// Postcondition: Returns the record or ErrCharacterNotFound.
func (r *CharacterRepository) GetByName(ctx context.Context, name string) (*CharacterRecord, error) {
	var rec CharacterRecord
	var raw []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, name, sheet, created_at, updated_at
		FROM characters WHERE name = $1`,
		name,
	).Scan(&rec.ID, &rec.Name, &raw, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	if err := json.Unmarshal(raw, &rec.Sheet); err != nil {
		return nil, fmt.Errorf("decoding stored sheet %q: %w", rec.Name, err)
	}
	return &rec, nil
}

// List returns every stored character sheet ordered by name.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) List(ctx context.Context) ([]*CharacterRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, sheet, created_at, updated_at
		FROM characters ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	recs := make([]*CharacterRecord, 0)
	for rows.Next() {
		var rec CharacterRecord
		var raw []byte
		if err := rows.Scan(&rec.ID, &rec.Name, &raw, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		if err := json.Unmarshal(raw, &rec.Sheet); err != nil {
			return nil, fmt.Errorf("decoding stored sheet %q: %w", rec.Name, err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// Update replaces the stored sheet under the record's name.
//
// Precondition: sheet must pass content validation.
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row
// carries the sheet's name.
func (r *CharacterRepository) Update(ctx context.Context, sheet *content.Monster) error {
	if err := sheet.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(sheet)
	if err != nil {
		return fmt.Errorf("encoding character sheet: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE characters SET sheet = $2, updated_at = NOW()
		WHERE name = $1`,
		sheet.Name, doc,
	)
	if err != nil {
		return fmt.Errorf("updating character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// Delete removes the sheet stored under name.
//
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row
// carried the name.
func (r *CharacterRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM characters WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
