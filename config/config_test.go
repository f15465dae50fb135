package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.False(t, cfg.MakerChecker.EnsureUnique)
	assert.Zero(t, cfg.MakerChecker.RequestExpiration)

	opts := cfg.MakerChecker.Options()
	assert.Empty(t, opts.Makers)
	assert.Empty(t, opts.Checkers)
}

func TestParse_MakerCheckerOptions(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: map[string]string{
		"MAKERCHECKER_MAKERS":             "users, clerks",
		"MAKERCHECKER_CHECKERS":           "supervisors",
		"MAKERCHECKER_REQUEST_EXPIRATION": "90m",
		"MAKERCHECKER_ENSURE_UNIQUE":      "true",
	}})
	require.NoError(t, err)

	opts := cfg.MakerChecker.Options()
	assert.Equal(t, []string{"users", "clerks"}, opts.Makers)
	assert.Equal(t, []string{"supervisors"}, opts.Checkers)
	assert.Equal(t, 90*time.Minute, opts.RequestExpiration)
	assert.True(t, opts.EnsureUnique)
}

func TestParse_RejectsInvalidValues(t *testing.T) {
	_, err := Parse(env.Options{Environment: map[string]string{"DB_DRIVER": "oracle"}})
	require.Error(t, err)

	_, err = Parse(env.Options{Environment: map[string]string{"MAKERCHECKER_REQUEST_EXPIRATION": "-5m"}})
	require.Error(t, err)

	_, err = Parse(env.Options{Environment: map[string]string{"LOG_FORMAT": "xml"}})
	require.Error(t, err)
}

func TestDatabaseOptions_ConnectionString(t *testing.T) {
	pg := DatabaseOptions{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Name: "mc"}
	assert.Contains(t, pg.ConnectionString(), "host=db")
	assert.Contains(t, pg.ConnectionString(), "dbname=mc")

	lite := DatabaseOptions{Driver: "sqlite", Path: "file.db"}
	assert.Equal(t, "file.db", lite.ConnectionString())
}

func TestLoadEnv_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(present, []byte("MAKERCHECKER_TEST_LOAD=ok\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("MAKERCHECKER_TEST_LOAD") })

	n, err := LoadEnv([]string{present, filepath.Join(dir, ".env.local")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("MAKERCHECKER_TEST_LOAD"))
}
