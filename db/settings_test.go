package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "nested", "profile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestGetMissingKeyReturnsEmpty(t *testing.T) {
	database := newTestDB(t)

	value, err := database.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestSetManyThenDelete(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, database.SetMany(map[string]string{
		"token": "t1",
		"role":  "patient",
	}))
	require.NoError(t, database.Set("role", "admin"))

	token, err := database.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "t1", token)

	role, err := database.Get("role")
	require.NoError(t, err)
	assert.Equal(t, "admin", role)

	require.NoError(t, database.Delete("token", "role", "never-set"))

	settings, err := database.ListSettings()
	require.NoError(t, err)
	assert.Empty(t, settings)
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.db")

	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Set("user_id", "42"))
	require.NoError(t, first.Close())

	second, err := New(path)
	require.NoError(t, err)
	defer second.Close()

	value, err := second.Get("user_id")
	require.NoError(t, err)
	assert.Equal(t, "42", value)
}
