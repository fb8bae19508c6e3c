package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "studyhub", Name: "studyhub"})
	require.NoError(t, err)
	require.Equal(t,
		"host=localhost port=5432 user=studyhub dbname=studyhub application_name=studyhub sslmode=disable",
		dsn,
	)
}

func TestBuildPostgresDSNOptionsOverrideDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	require.NoError(t, err)
	for _, part := range []string{
		"host=db.example.com",
		"port=6543",
		"password=pass",
		"sslmode=require",
		"search_path=public",
	} {
		require.Contains(t, dsn, part)
	}
	require.NotContains(t, dsn, "sslmode=disable")
}

func TestBuildPostgresDSNQuotesValues(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "study", Name: "hub", Password: "it's a secret"})
	require.NoError(t, err)
	require.Contains(t, dsn, `password='it\'s a secret'`)
}

func TestBuildPostgresDSNPassesThroughOverride(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "postgres://example"})
	require.NoError(t, err)
	require.Equal(t, "postgres://example", dsn)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "studyhub", Name: "studyhub"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "studyhub@tcp(127.0.0.1:3306)/studyhub?"), dsn)
	require.Contains(t, dsn, "parseTime=true")
	require.Contains(t, dsn, "loc=Local")
	require.Contains(t, dsn, "charset=utf8mb4")
}

func TestBuildMySQLDSNWithOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options:  map[string]string{"charset": "utf8", "timeout": "5s"},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "user:secret@tcp(db.example.com:3307)/db?"), dsn)
	require.Contains(t, dsn, "charset=utf8")
	require.NotContains(t, dsn, "utf8mb4")
	require.Contains(t, dsn, "timeout=5s")
}

func TestBuildDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.ErrorIs(t, err, errMissingCredentials)

	_, err = buildMySQLDSN(Config{Host: "localhost"})
	require.ErrorIs(t, err, errMissingCredentials)
}
