package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/relacksation-backend/pkg/config"
	"github.com/angelmondragon/relacksation-backend/pkg/migrate"
	"github.com/angelmondragon/relacksation-backend/pkg/security"
)

func TestHashPasswordPrintsVerifiableHash(t *testing.T) {
	var out bytes.Buffer
	cfg := config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	require.NoError(t, hashPassword(strings.NewReader("owner-secret\n"), &out, cfg))

	hash := strings.TrimSpace(out.String())
	ok, err := security.VerifyPassword("owner-secret", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashPasswordRejectsEmptyInput(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, hashPassword(strings.NewReader("\n"), &out, config.PasswordConfig{}))
	assert.Empty(t, out.String())
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, []migrate.Status{
		{Version: 20240601000000, Path: "20240601000000_create_enum_types.sql", Applied: true, AppliedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Version: 20240601000100, Path: "20240601000100_create_products_table.sql"},
	})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "2026-01-02T03:04:05Z")
	assert.Contains(t, lines[2], "pending")
}

func TestRunOfflineCommands(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run("create", dir, "add notes", "", nil))
	require.NoError(t, run("validate", dir, "", "", nil))
	require.NoError(t, run("validate", "", "", "", nil))
}
