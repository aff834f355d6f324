package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/kpi-engine/calendar"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil, env(nil))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "kpi.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, calendar.WeekendSatSun, cfg.Weekend)
	assert.Equal(t, defaultOrigins, cfg.CORSOrigins)
}

func TestParse_EnvThenFlags(t *testing.T) {
	vars := env(map[string]string{
		"PORT":         "9000",
		"DB_PATH":      "/var/lib/kpi.db",
		"LOG_JSON":     "yes",
		"WEEKEND":      "fri",
		"CORS_ORIGINS": "https://a.example, https://b.example",
	})

	cfg, err := Parse([]string{"-port", "7000"}, vars)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port, "flag wins over env")
	assert.Equal(t, "/var/lib/kpi.db", cfg.DBPath)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, calendar.WeekendFri, cfg.Weekend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(nil, env(map[string]string{"PORT": "eighty"}))
	assert.Error(t, err)

	_, err = Parse([]string{"-port", "70000"}, env(nil))
	assert.Error(t, err)

	_, err = Parse([]string{"-weekend", "tue"}, env(nil))
	assert.Error(t, err)

	_, err = Parse([]string{"-bogus"}, env(nil))
	assert.Error(t, err)
}
