package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/models"
)

// CountHistoryRepository stores per-snapshot monster totals in ClickHouse
type CountHistoryRepository struct {
	db *ClickHouseDB
}

// NewCountHistoryRepository creates a new count history repository
func NewCountHistoryRepository(db *ClickHouseDB) *CountHistoryRepository {
	return &CountHistoryRepository{db: db}
}

// InsertCounts writes the totals of one snapshot in a single batch
func (r *CountHistoryRepository) InsertCounts(ctx context.Context, points []models.ItemCountPoint) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO item_counts (snapshot_id, taken_at, item, count, proposed)
	`)
	if err != nil {
		return apperrors.NewDatabaseError("prepare count batch", err)
	}

	for _, p := range points {
		if err := batch.Append(p.SnapshotID, p.TakenAt, p.Item, p.Count, p.Proposed); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("failed to append count for %s: %w", p.Item, err)
		}
	}

	if err := batch.Send(); err != nil {
		return apperrors.NewDatabaseError("send count batch", err)
	}
	return nil
}

// ItemHistory returns the archived totals of every monster whose name
// contains query (case-insensitive), oldest snapshot first
func (r *CountHistoryRepository) ItemHistory(ctx context.Context, query string, from, to *time.Time) ([]models.ItemCountPoint, error) {
	sql := `
		SELECT snapshot_id, taken_at, item, count, proposed
		FROM item_counts
		WHERE positionCaseInsensitiveUTF8(item, ?) > 0
	`
	args := []any{strings.TrimSpace(query)}

	if from != nil {
		sql += " AND taken_at >= ?"
		args = append(args, *from)
	}
	if to != nil {
		sql += " AND taken_at <= ?"
		args = append(args, *to)
	}
	sql += " ORDER BY taken_at ASC, item ASC"

	rows, err := r.db.Conn().Query(ctx, sql, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("query item history", err)
	}
	defer rows.Close()

	var points []models.ItemCountPoint
	for rows.Next() {
		var p models.ItemCountPoint
		if err := rows.Scan(&p.SnapshotID, &p.TakenAt, &p.Item, &p.Count, &p.Proposed); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("query item history", err)
	}
	return points, nil
}

// DeleteSnapshot drops the totals recorded for one snapshot
func (r *CountHistoryRepository) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	if err := r.db.Exec(ctx, `ALTER TABLE item_counts DELETE WHERE snapshot_id = ?`, id); err != nil {
		return apperrors.NewDatabaseError("delete counts", err)
	}
	return nil
}
