package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository is a database-backed store for catalog items.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// SaveAll replaces the stored catalog with items, keeping their order.
func (r *Repository) SaveAll(ctx context.Context, items []Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (id, name, calories, meal_type, tags, position) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for pos, it := range items {
		var calories sql.NullInt64
		if cal, ok := it.KnownCalories(); ok {
			calories = sql.NullInt64{Int64: int64(cal), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, it.ID, it.Name, calories, string(it.MealType), it.TagString(), pos); err != nil {
			return fmt.Errorf("failed to insert item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit items: %w", err)
	}
	return nil
}

// List returns all stored items in their saved order.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, calories, meal_type, tags FROM items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it       Item
			calories sql.NullInt64
			mealType string
			tags     string
		)
		if err := rows.Scan(&it.ID, &it.Name, &calories, &mealType, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		mt, ok := ParseMealType(mealType)
		if !ok {
			return nil, fmt.Errorf("item %s has unknown meal type %q", it.ID, mealType)
		}
		it.MealType = mt
		it.Tags = ParseTags(tags)
		if calories.Valid {
			it.Calories = int(calories.Int64)
		} else {
			it.CaloriesUnknown = true
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// Count returns the number of stored items.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// Load builds a catalog from the stored items.
func (r *Repository) Load(ctx context.Context) (*Catalog, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return New(items)
}
