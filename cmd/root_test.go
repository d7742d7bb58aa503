package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/moverscan/internal/config"
	"github.com/sells-group/moverscan/internal/store"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"run", "schedule", "companies", "migrate"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "moverscan", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestScheduleCommand_Flags(t *testing.T) {
	flag := scheduleCmd.Flags().Lookup("every")
	require.NotNil(t, flag, "schedule command should have --every flag")
}

func TestCompaniesCommand_Flags(t *testing.T) {
	flag := companiesCmd.Flags().Lookup("json")
	require.NotNil(t, flag, "companies command should have --json flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestInitStore_Drivers(t *testing.T) {
	dir := t.TempDir()
	orig := cfg
	defer func() { cfg = orig }()

	cfg = &config.Config{Store: config.StoreConfig{
		Driver: "json",
		Path:   filepath.Join(dir, "companies.json"),
	}}
	st, err := initStore(context.Background())
	require.NoError(t, err)
	_, isJSON := st.(*store.JSONStore)
	assert.True(t, isJSON)
	require.NoError(t, st.Close())

	cfg = &config.Config{Store: config.StoreConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "companies.db"),
	}}
	st, err = initStore(context.Background())
	require.NoError(t, err)
	_, isSQLite := st.(*store.SQLiteStore)
	assert.True(t, isSQLite)
	require.NoError(t, st.Close())

	cfg = &config.Config{Store: config.StoreConfig{Driver: "bolt"}}
	_, err = initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}
