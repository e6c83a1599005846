package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/erratas/internal/entities"
)

func TestNewDatabase(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "erratas.db"), nil)
	require.NoError(t, err)

	require.NoError(t, db.Ping())
	assert.True(t, db.DB.Migrator().HasTable(&entities.AuditEvent{}))

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}

func TestNewDatabase_InvalidPath(t *testing.T) {
	_, err := NewDatabase(filepath.Join(t.TempDir(), "missing", "dir", "erratas.db"), nil)
	assert.Error(t, err)
}
