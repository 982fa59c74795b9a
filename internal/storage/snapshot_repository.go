package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/models"
)

// SnapshotRepository archives snapshots in Postgres. Payloads are stored in
// a json (not jsonb) column so the player order survives.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{
		pool: pool,
	}
}

// Create stores a snapshot, assigning ID and CreatedAt when unset
func (r *SnapshotRepository) Create(ctx context.Context, archived *models.ArchivedSnapshot) error {
	if archived.ID == uuid.Nil {
		archived.ID = uuid.New()
	}
	if archived.CreatedAt.IsZero() {
		archived.CreatedAt = time.Now().UTC()
	}
	archived.Players = archived.Snapshot.Len()

	payload, err := archived.Snapshot.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshots (id, label, taken_at, players, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.pool.Exec(ctx, query,
		archived.ID,
		archived.Label,
		archived.TakenAt,
		archived.Players,
		payload,
		archived.CreatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseError("insert snapshot", err)
	}

	return nil
}

// GetByID loads an archived snapshot with its payload
func (r *SnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ArchivedSnapshot, error) {
	query := `
		SELECT id, label, taken_at, players, payload, created_at
		FROM snapshots
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

// Latest loads the most recent archived snapshot, nil when the archive is empty
func (r *SnapshotRepository) Latest(ctx context.Context) (*models.ArchivedSnapshot, error) {
	query := `
		SELECT id, label, taken_at, players, payload, created_at
		FROM snapshots
		ORDER BY taken_at DESC
		LIMIT 1
	`
	archived, err := r.scanOne(ctx, query)
	if apperrors.IsCategory(err, apperrors.CategoryMissingData) {
		return nil, nil
	}
	return archived, err
}

// List returns archive metadata without payloads, newest first
func (r *SnapshotRepository) List(ctx context.Context, limit int) ([]*models.ArchivedSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, label, taken_at, players, created_at
		FROM snapshots
		ORDER BY taken_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list snapshots", err)
	}
	defer rows.Close()

	var snapshots []*models.ArchivedSnapshot
	for rows.Next() {
		var s models.ArchivedSnapshot
		if err := rows.Scan(&s.ID, &s.Label, &s.TakenAt, &s.Players, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list snapshots", err)
	}

	return snapshots, nil
}

// Delete removes an archived snapshot
func (r *SnapshotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM snapshots WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewDatabaseError("delete snapshot", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewMissingDataError("snapshot "+id.String(), nil)
	}
	return nil
}

func (r *SnapshotRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*models.ArchivedSnapshot, error) {
	var archived models.ArchivedSnapshot
	var payload []byte

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&archived.ID,
		&archived.Label,
		&archived.TakenAt,
		&archived.Players,
		&payload,
		&archived.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		source := "snapshot archive"
		if len(args) > 0 {
			source = fmt.Sprintf("snapshot %v", args[0])
		}
		return nil, apperrors.NewMissingDataError(source, err)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("query snapshot", err)
	}

	archived.Snapshot = models.NewSnapshot()
	if err := archived.Snapshot.UnmarshalJSON(payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", archived.ID, err)
	}

	return &archived, nil
}
