package predictor

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository persists precomputed scores in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a Repository over an open database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveAll replaces all stored scores with scores.
func (r *Repository) SaveAll(ctx context.Context, scores []Score) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM predictions`); err != nil {
		return fmt.Errorf("failed to clear predictions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO predictions (user_id, item_id, score) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range scores {
		if _, err := stmt.ExecContext(ctx, s.UserID, s.ItemID, s.Score); err != nil {
			return fmt.Errorf("failed to insert prediction %s/%s: %w", s.UserID, s.ItemID, err)
		}
	}
	return tx.Commit()
}

// LoadTable reads every stored score into a Table.
func (r *Repository) LoadTable(ctx context.Context) (*Table, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, item_id, score FROM predictions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var s Score
		if err := rows.Scan(&s.UserID, &s.ItemID, &s.Score); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewTable(scores), nil
}
