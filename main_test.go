package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaiAbdullah1800/AiMed/db"
	"github.com/RaiAbdullah1800/AiMed/session"
	"github.com/RaiAbdullah1800/AiMed/utils"
)

func TestLogProfileKeysOmitsValues(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "profile.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.SetMany(map[string]string{
		session.KeyToken: "secret-token-value",
		session.KeyEmail: "jane@example.com",
	}))

	var out bytes.Buffer
	logProfileKeys(utils.NewWriterLogger(&out), database)

	logged := out.String()
	assert.Contains(t, logged, session.KeyToken)
	assert.Contains(t, logged, session.KeyEmail)
	assert.NotContains(t, logged, "secret-token-value")
	assert.NotContains(t, logged, "jane@example.com")
}
