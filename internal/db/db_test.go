package db

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Stripe", "stripe"},
		{"  Mail Chimp ", "mailchimp"},
		{"AT&T", "att"},
		{"HubSpot, Inc.", "hubspotinc"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

func TestHashContent(t *testing.T) {
	a := HashContent("<html>a</html>")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashContent("<html>a</html>"))
	assert.NotEqual(t, a, HashContent("<html>b</html>"))
}

func TestPageFreshness(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		page    Page
		maxAge  time.Duration
		fresh   bool
		expired bool
	}{
		{"recent without expiry", Page{FetchedAt: time.Now()}, time.Hour, true, false},
		{"older than max age", Page{FetchedAt: time.Now().Add(-2 * time.Hour)}, time.Hour, false, false},
		{"recent but expired", Page{FetchedAt: time.Now(), ExpiresAt: &past}, time.Hour, false, true},
		{"recent and unexpired", Page{FetchedAt: time.Now(), ExpiresAt: &future}, time.Hour, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fresh, tt.page.IsFresh(tt.maxAge))
			assert.Equal(t, tt.expired, tt.page.IsExpired())
		})
	}
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a ();\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "CREATE TABLE a ();", strings.TrimSpace(ExtractUpMigration(content)))

	assert.Equal(t, "CREATE TABLE b ();", ExtractUpMigration("CREATE TABLE b ();"))
	assert.Equal(t, "\nCREATE TABLE c ();", ExtractUpMigration("-- +migrate Up\nCREATE TABLE c ();"))
}

func TestIsAlreadyExistsError(t *testing.T) {
	assert.True(t, IsAlreadyExistsError(errors.New(`ERROR: relation "brands" already exists (SQLSTATE 42P07)`)))
	assert.True(t, IsAlreadyExistsError(errors.New("duplicate key value violates unique constraint")))
	assert.False(t, IsAlreadyExistsError(errors.New("syntax error at or near")))
}

func TestMigrationFiles_SortedSQLOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_more.sql":   {Data: []byte("SELECT 2;")},
		"m/001_init.sql":   {Data: []byte("SELECT 1;")},
		"m/README.md":      {Data: []byte("notes")},
		"m/nested/003.sql": {Data: []byte("SELECT 3;")},
	}
	files, err := migrationFiles(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_more.sql"}, files)

	_, err = migrationFiles(fsys, "missing")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := migrationFiles(migrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := migrationFS.ReadFile("migrations/" + files[0])
	require.NoError(t, err)
	up := ExtractUpMigration(string(content))
	for _, table := range []string{"brands", "brand_pages", "brand_analyses", "aeo_reports",
		"campaigns", "marketing_assets", "optimizations", "pipeline_runs", "artifacts", "run_steps"} {
		assert.Contains(t, up, "CREATE TABLE IF NOT EXISTS "+table+" ", table)
	}
	assert.NotContains(t, up, "DROP TABLE")
}

func TestValidStepStatus(t *testing.T) {
	for _, s := range []string{StepStatusPending, StepStatusInProgress, StepStatusCompleted, StepStatusFailed, StepStatusSkipped} {
		assert.True(t, ValidStepStatus(s), s)
	}
	assert.False(t, ValidStepStatus("blocked"))
	assert.False(t, ValidStepStatus(""))
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("x"))
	assert.Equal(t, "x", *nullable("x"))
}
