package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	gdb, err := Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	for _, table := range []string{"chats", "chat_messages", "turn_jobs", "advisors", "prompts", "api_settings", "calculation_settings", "chat_analyses"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
}
