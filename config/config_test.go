package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
sorting:
  debounce_ms: 30
  error_chute: 99
  trigger:
    name: trigger
    endpoint: 192.168.1.10:9000
    time_range_lower_ms: 100
    time_range_upper_ms: 500
  sorts:
    - name: sort1
      endpoint: 192.168.1.11:9000
      chute: 1
      time_range_lower_ms: 100
      time_range_upper_ms: 500
      sorting_delay_ms: 200
      reset_delay_ms: 300
mqtt:
  broker: tcp://localhost:1883
metrics:
  prometheus_enabled: true
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", validYAML))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Sorting.DebounceMS)
	assert.Equal(t, 99, cfg.Sorting.ErrorChute)
	assert.Equal(t, "trigger", cfg.Sorting.Trigger.Name)
	require.Len(t, cfg.Sorting.Sorts, 1)
	assert.Equal(t, 1, cfg.Sorting.Sorts[0].Chute)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.True(t, cfg.Metrics.PrometheusEnabled)

	// Omitted sections still pick up defaults.
	assert.Equal(t, 3, cfg.Sorting.MatchRetryLimit)
	assert.Equal(t, 5000, cfg.Devices.HeartbeatIntervalMS)
	assert.Equal(t, "2112", cfg.Metrics.PrometheusPort)
}

func TestLoadJSON(t *testing.T) {
	body := `{
  "sorting": {
    "trigger": {"name": "trigger", "endpoint": "a:1", "time_range_lower_ms": 1, "time_range_upper_ms": 2},
    "sorts": [{"name": "s1", "endpoint": "b:1", "chute": 1, "time_range_lower_ms": 1, "time_range_upper_ms": 2, "sorting_delay_ms": 1, "reset_delay_ms": 1}]
  }
}`
	cfg, err := Load(writeConfig(t, "config.json", body))
	require.NoError(t, err)
	assert.Equal(t, "s1", cfg.Sorting.Sorts[0].Name)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SORTER_SORTING__ERROR_CHUTE", "7")
	cfg, err := Load(writeConfig(t, "config.yaml", validYAML))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Sorting.ErrorChute)
}

func TestLoadRejectsInvertedWindow(t *testing.T) {
	bad := `
sorting:
  trigger:
    name: trigger
    endpoint: a:1
    time_range_lower_ms: 500
    time_range_upper_ms: 100
  sorts: []
`
	_, err := Load(writeConfig(t, "config.yaml", bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inverted")
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", "whatever"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
