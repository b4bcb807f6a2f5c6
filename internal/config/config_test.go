package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goslide/internal/sequence"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 6.0, cfg.Interval)
	assert.Equal(t, sequence.LoopForever, cfg.Loop)
	assert.Equal(t, InsertShowNext, cfg.Insert)
	assert.False(t, cfg.Random)
	assert.False(t, cfg.Watch)
}

func TestLoadWithoutHomeReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
interval: 2.5
random: true
loop: 3
watch: true
insert: append
extensions: [".jpg", ".webp"]
ignore: ["**/.thumbnails/**"]
hold_on_end: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2.5, cfg.Interval)
	assert.True(t, cfg.Random)
	assert.Equal(t, 3, cfg.Loop)
	assert.True(t, cfg.Watch)
	assert.Equal(t, InsertAppend, cfg.Insert)
	assert.Equal(t, []string{".jpg", ".webp"}, cfg.Extensions)
	assert.Equal(t, []string{"**/.thumbnails/**"}, cfg.Ignore)
	assert.True(t, cfg.HoldOnEnd)
}

func TestLoadFileBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: [not a number"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"zero interval", func(c *Config) { c.Interval = 0 }, false},
		{"negative interval", func(c *Config) { c.Interval = -1 }, false},
		{"loop below forever", func(c *Config) { c.Loop = -2 }, false},
		{"loop once", func(c *Config) { c.Loop = 0 }, true},
		{"bad insert policy", func(c *Config) { c.Insert = "sideways" }, false},
		{"append policy", func(c *Config) { c.Insert = InsertAppend }, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if test.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDerivedAccessors(t *testing.T) {
	cfg := Default()
	cfg.Interval = 0.5
	assert.Equal(t, 500*time.Millisecond, cfg.IntervalDuration())

	assert.Equal(t, sequence.Sequential, cfg.Mode())
	cfg.Random = true
	assert.Equal(t, sequence.Random, cfg.Mode())

	assert.Equal(t, sequence.ShowNext, cfg.Policy())
	cfg.Insert = InsertAppend
	assert.Equal(t, sequence.Append, cfg.Policy())
}
