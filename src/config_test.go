package dcf77

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	var path = filepath.Join(t.TempDir(), "dcf77tx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	var cfg, err = LoadConfig(writeConfig(t, `
chip: gpiochip1
pin_p: 17
pin_n: 27
resync_seconds: 3600
`))
	require.NoError(t, err)

	assert.Equal(t, "gpiochip1", cfg.Chip)
	assert.Equal(t, 17, cfg.PinP)
	assert.Equal(t, 27, cfg.PinN)
	assert.Equal(t, 3600, cfg.ResyncSeconds)
	assert.Equal(t, DefaultTicksPerCycle, cfg.TicksPerCycle, "untouched keys keep defaults")
}

func TestLoadConfig_EmptyFileKeepsDefaults(t *testing.T) {
	var cfg, err = LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_RejectsUnknownKeys(t *testing.T) {
	var _, err = LoadConfig(writeConfig(t, "pin: 2\n"))
	assert.Error(t, err, "a typo must not silently fall back to a default pin")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	var _, err = LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	var cases = []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty chip", func(c *Config) { c.Chip = "" }},
		{"same pins", func(c *Config) { c.PinN = c.PinP }},
		{"negative pin", func(c *Config) { c.PinP = -1 }},
		{"ticks not multiple of 8", func(c *Config) { c.TicksPerCycle = 1202 }},
		{"zero ticks", func(c *Config) { c.TicksPerCycle = 0 }},
		{"zero fifo depth", func(c *Config) { c.FIFODepth = 0 }},
		{"negative resync", func(c *Config) { c.ResyncSeconds = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg = DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_SystemFreq(t *testing.T) {
	assert.Equal(t, int64(93_000_000), DefaultConfig().SystemFreqHz(),
		"77.5 kHz times 1200 ticks per cycle")
}
