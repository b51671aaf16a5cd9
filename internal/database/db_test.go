package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mealrec.db")

	db, err := NewDB(path, zerolog.Nop())
	require.NoError(t, err)

	for _, table := range []string{"items", "predictions", "execution_metrics"} {
		var name string
		err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
	require.NoError(t, db.Close())

	// Reopening an up-to-date database is not an error.
	db, err = NewDB(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
