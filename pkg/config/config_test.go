package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND", "")
	t.Setenv("ATTENDANCE_STATUSES", "presente, ausente ,tardanza")
	t.Setenv("TERM_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, []string{"PRESENTE", "AUSENTE", "TARDANZA"}, cfg.Attendance.Statuses)
	assert.Equal(t, 30*time.Second, cfg.Terms.CacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.Attendance.LedgerIdleTTL)
}

func TestLoadPostgresBackend(t *testing.T) {
	t.Setenv("BACKEND", "Postgres")
	t.Setenv("SCHOOL_API_BASE_URL", "http://school.local/api/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "http://school.local/api", cfg.SchoolAPI.BaseURL)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
