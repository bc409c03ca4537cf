package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.PhotoPath)
	assert.Equal(t, cfg.DBPath+".lock", cfg.LockPath)
	assert.Equal(t, 320, cfg.Capture.ThumbMaxSide)
	assert.Equal(t, 85, cfg.Capture.FullQuality)
	assert.Equal(t, 70, cfg.Capture.ThumbQuality)
	assert.Equal(t, 8192, cfg.Capture.MaxFrameSide)
}

func TestLoadFileEnvValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("STAMPCAM_THUMB_MAX_SIDE", "200")
	t.Setenv("STAMPCAM_BLUR_THRESHOLD", "55.5")
	t.Setenv("STAMPCAM_MAX_FRAME_SIDE", "4096")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "/custom/db.sqlite.lock", cfg.LockPath)
	assert.Equal(t, 200, cfg.Capture.ThumbMaxSide)
	assert.InDelta(t, 55.5, cfg.Capture.BlurThreshold, 1e-9)
	assert.Equal(t, 4096, cfg.Capture.MaxFrameSide)
}

func TestLoadFileTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stampcam.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/srv/survey"
log_level = "debug"

[capture]
thumb_max_side = 256
blur_threshold = 40.0

[export]
compression_level = 9
strict_sanitize = true
timezone = "UTC"
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/survey/stampcam.db", cfg.DBPath)
	assert.Equal(t, "/srv/survey/photos", cfg.PhotoPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 256, cfg.Capture.ThumbMaxSide)
	assert.Equal(t, 1280, cfg.Capture.DefaultWidth, "unset keys keep defaults")
	assert.Equal(t, 9, cfg.Export.CompressionLevel)
	assert.True(t, cfg.Export.StrictSanitize)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadFileEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stampcam.toml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr = \":7000\"\n"), 0o600))
	t.Setenv("LISTEN_ADDR", ":7100")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":7100", cfg.ListenAddr)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadFileInvalidEnv(t *testing.T) {
	t.Setenv("STAMPCAM_COMPRESSION_LEVEL", "max")
	_, err := LoadFile("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero width", mutate: func(c *Config) { c.Capture.DefaultWidth = 0 }},
		{name: "quality too high", mutate: func(c *Config) { c.Capture.FullQuality = 101 }},
		{name: "thumb quality zero", mutate: func(c *Config) { c.Capture.ThumbQuality = 0 }},
		{name: "thumb side zero", mutate: func(c *Config) { c.Capture.ThumbMaxSide = 0 }},
		{name: "frame side zero", mutate: func(c *Config) { c.Capture.MaxFrameSide = 0 }},
		{name: "negative blur", mutate: func(c *Config) { c.Capture.BlurThreshold = -1 }},
		{name: "compression level", mutate: func(c *Config) { c.Export.CompressionLevel = 12 }},
		{name: "bad timezone", mutate: func(c *Config) { c.Export.Timezone = "Mars/Olympus" }},
	}

	assert.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
