package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// ErrEncounterNotFound is returned when an encounter lookup yields no results.
var ErrEncounterNotFound = errors.New("encounter not found")

// EncounterRecord is one finished encounter: which scenario ran, the seed
// that drove it, its headline numbers, and the full report for replay
// inspection. Seeds are stored in their signed bit pattern, so values above
// the int64 range round-trip unchanged.
type EncounterRecord struct {
	ID        int64
	Scenario  string
	Seed      uint64
	Rounds    int
	Victor    combat.Side
	Report    combat.Report
	CreatedAt time.Time
}

// EncounterRepository provides encounter report persistence.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// Save stores a finished encounter report.
//
// Precondition: report must be non-nil.
// Postcondition: Returns the stored record with ID and timestamp set.
func (r *EncounterRepository) Save(ctx context.Context, scenario string, seed uint64, report *combat.Report) (*EncounterRecord, error) {
	if report == nil {
		panic("postgres: Save requires a non-nil report")
	}
	doc, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encoding encounter report: %w", err)
	}

	rec := EncounterRecord{
		Scenario: scenario,
		Seed:     seed,
		Rounds:   report.Rounds,
		Victor:   report.Victor,
		Report:   *report,
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO encounters (scenario, seed, rounds, victor, report)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		scenario, int64(seed), report.Rounds, string(report.Victor), doc,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting encounter: %w", err)
	}
	return &rec, nil
}

// GetByID retrieves an encounter by its primary key.
//
// Postcondition: Returns the record or ErrEncounterNotFound.
func (r *EncounterRepository) GetByID(ctx context.Context, id int64) (*EncounterRecord, error) {
	var rec EncounterRecord
	var seed int64
	var victor string
	var raw []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, scenario, seed, rounds, victor, report, created_at
		FROM encounters WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Scenario, &seed, &rec.Rounds, &victor, &raw, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEncounterNotFound
		}
		return nil, fmt.Errorf("querying encounter: %w", err)
	}
	rec.Seed = uint64(seed)
	rec.Victor = combat.Side(victor)
	if err := json.Unmarshal(raw, &rec.Report); err != nil {
		return nil, fmt.Errorf("decoding stored report %d: %w", rec.ID, err)
	}
	return &rec, nil
}

// ListByScenario returns the stored runs of one scenario, newest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *EncounterRepository) ListByScenario(ctx context.Context, scenario string) ([]*EncounterRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, scenario, seed, rounds, victor, report, created_at
		FROM encounters WHERE scenario = $1 ORDER BY created_at DESC, id DESC`,
		scenario,
	)
	if err != nil {
		return nil, fmt.Errorf("listing encounters: %w", err)
	}
	defer rows.Close()

	recs := make([]*EncounterRecord, 0)
	for rows.Next() {
		var rec EncounterRecord
		var seed int64
		var victor string
		var raw []byte
		if err := rows.Scan(&rec.ID, &rec.Scenario, &seed, &rec.Rounds, &victor, &raw, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning encounter row: %w", err)
		}
		rec.Seed = uint64(seed)
		rec.Victor = combat.Side(victor)
		if err := json.Unmarshal(raw, &rec.Report); err != nil {
			return nil, fmt.Errorf("decoding stored report %d: %w", rec.ID, err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// Delete removes a stored encounter by ID.
//
// Postcondition: Returns nil on success, ErrEncounterNotFound if no row
// carried the ID.
func (r *EncounterRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM encounters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting encounter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEncounterNotFound
	}
	return nil
}
