package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/linkfy/internal/db/jsondb"
)

const testSigningKey = "bGlua2Z5LXNlZWQtdGVzdC1rZXk="

func TestParseSeedArgs(t *testing.T) {
	seed, rest, err := parseSeedArgs([]string{"-email", "ann@example.com", "-url", "https://example.com", "--", "-f", "db.json"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", seed.email)
	assert.Equal(t, "https://example.com", seed.url)
	assert.Equal(t, []string{"-f", "db.json"}, rest)

	_, rest, err = parseSeedArgs([]string{"-email", "ann@example.com", "-url", "https://example.com"})
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestParseSeedArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing url", args: []string{"-email", "ann@example.com"}},
		{name: "server flag without separator", args: []string{"-email", "ann@example.com", "-url", "https://example.com", "-f", "db.json"}},
		{name: "stray argument", args: []string{"-email", "ann@example.com", "-url", "https://example.com", "db.json"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := parseSeedArgs(test.args)
			assert.Error(t, err)
		})
	}
}

func TestSeedRecord(t *testing.T) {
	now := time.Date(2023, 3, 1, 10, 20, 30, 0, time.UTC)

	record := seedArgs{url: "https://example.com"}.record(now)
	assert.Len(t, record.Code, codeLength)
	assert.Equal(t, "2023-03-01T10:20:30Z", record.Date)
	assert.NoError(t, record.Validate())

	record = seedArgs{url: "https://example.com", code: "abc123", date: "2023-01-01"}.record(now)
	assert.Equal(t, "abc123", record.Code)
	assert.Equal(t, "2023-01-01", record.Date)
}

func TestRunSavesIntoFileStore(t *testing.T) {
	dbFileName := filepath.Join(t.TempDir(), "db.json")
	t.Setenv("SESSION_SIGNING_KEY", testSigningKey)

	err := run([]string{"-email", "ann@example.com", "-url", "https://example.com", "-code", "abc123", "--", "-f", dbFileName})
	require.NoError(t, err)

	db, err := jsondb.New(dbFileName)
	require.NoError(t, err)
	records, err := db.GetUserLinks(context.Background(), "ann@example.com")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "abc123", records[0].Code)
}

func TestRunRefusesMemoryStore(t *testing.T) {
	t.Setenv("SESSION_SIGNING_KEY", testSigningKey)
	err := run([]string{"-email", "ann@example.com", "-url", "https://example.com"})
	assert.EqualError(t, err, "no persistent store configured")
}
