package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "prospection.db"))
	require.NoError(t, err)

	var one int
	require.NoError(t, conn.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestEnsureSchema_RejectsOddNames(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "prospection.db"))
	require.NoError(t, err)

	for _, name := range []string{"", "Prospection", `x"; DROP TABLE records; --`, "1abc"} {
		assert.Error(t, EnsureSchema(conn, name), name)
	}
}

func TestOpenPostgres_EmptyDSN(t *testing.T) {
	_, err := OpenPostgres("", "prospection")
	assert.Error(t, err)
}
