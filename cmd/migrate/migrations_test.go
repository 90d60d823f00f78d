package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/profit-tracker/internal/logger"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_init_schema_migrations.sql", true, 1, "init_schema_migrations"},
		{"0012_goals.sql", true, 12, "goals"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"0000_zero.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseFilename(tt.filename)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestChecksumConsistency(t *testing.T) {
	a := checksum([]byte("CREATE TABLE test (id INT64);"))
	assert.Equal(t, a, checksum([]byte("CREATE TABLE test (id INT64);")))
	assert.NotEqual(t, a, checksum([]byte("CREATE TABLE different (id INT64);")))
	assert.Len(t, a, 64)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_second.sql", "SELECT 2 FROM `{{PROJECT_ID}}.{{DATASET_ID}}.t`;")
	writeFile(t, dir, "0001_first.sql", "SELECT 1;")
	writeFile(t, dir, "README.md", "not a migration")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0755))

	migrations, err := readMigrations(dir, "acme", "ledger", logger.NewWithWriter(io.Discard))
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "second", migrations[1].Name)
	assert.Equal(t, "SELECT 2 FROM `acme.ledger.t`;", migrations[1].SQL)
	assert.Equal(t, checksum([]byte("SELECT 2 FROM `{{PROJECT_ID}}.{{DATASET_ID}}.t`;")), migrations[1].Checksum)
}

func TestReadMigrationsRejectsDuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_a.sql", "SELECT 1;")
	writeFile(t, dir, "0001_b.sql", "SELECT 1;")

	_, err := readMigrations(dir, "p", "d", logger.NewWithWriter(io.Discard))
	assert.ErrorContains(t, err, "duplicate migration version 0001")
}

func TestRepositoryMigrationsParse(t *testing.T) {
	dir, err := findMigrationsDir("migrations/bigquery")
	require.NoError(t, err)

	migrations, err := readMigrations(dir, "p", "d", logger.NewWithWriter(io.Discard))
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "migrations must be numbered without gaps")
		assert.NotContains(t, m.SQL, "{{")
	}
}

func TestPlan(t *testing.T) {
	migrations := []Migration{
		{Version: 1, Name: "a", Checksum: "c1"},
		{Version: 2, Name: "b", Checksum: "c2-edited"},
		{Version: 3, Name: "c", Checksum: "c3"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "c1"},
		{Version: 2, Checksum: "c2"},
	}

	pending, drifted := plan(migrations, applied)
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Version)
	require.Len(t, drifted, 1)
	assert.Equal(t, 2, drifted[0].Version)

	pending, drifted = plan(migrations, nil)
	assert.Len(t, pending, 3)
	assert.Empty(t, drifted)
}
