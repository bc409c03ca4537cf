package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Capture holds capture pipeline settings.
type Capture struct {
	DefaultWidth  int `toml:"default_width"`
	DefaultHeight int `toml:"default_height"`
	FullQuality   int `toml:"full_quality"`
	ThumbQuality  int `toml:"thumb_quality"`
	ThumbMaxSide  int `toml:"thumb_max_side"`
	// BlurThreshold is the minimum Laplacian variance accepted. 0 disables the
	// focus gate.
	BlurThreshold float64 `toml:"blur_threshold"`
	// MaxFrameSide caps the width and height of a frame accepted for capture.
	MaxFrameSide int `toml:"max_frame_side"`
}

// Export holds archive settings.
type Export struct {
	OutputDir        string `toml:"output_dir"`
	CompressionLevel int    `toml:"compression_level"`
	// StrictSanitize also replaces whitespace in archive paths.
	StrictSanitize bool `toml:"strict_sanitize"`
	// Timezone names the zone used for photo timestamps; empty means local.
	Timezone string `toml:"timezone"`
}

type Config struct {
	ListenAddr string  `toml:"listen_addr"`
	DataDir    string  `toml:"data_dir"`
	DBPath     string  `toml:"db_path"`
	PhotoPath  string  `toml:"photo_path"`
	LockPath   string  `toml:"lock_path"`
	LogLevel   string  `toml:"log_level"`
	LogFile    string  `toml:"log_file"`
	Capture    Capture `toml:"capture"`
	Export     Export  `toml:"export"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr: "127.0.0.1:8080",
		DataDir:    "stampcam-data",
		LogLevel:   "info",
		Capture: Capture{
			DefaultWidth:  1280,
			DefaultHeight: 720,
			FullQuality:   85,
			ThumbQuality:  70,
			ThumbMaxSide:  320,
			MaxFrameSide:  8192,
		},
		Export: Export{
			OutputDir:        ".",
			CompressionLevel: 6,
		},
	}
}

// LoadFile reads the optional TOML file at path, applies environment
// overrides and validates the result. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.derivePaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) derivePaths() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "stampcam.db")
	}
	if c.PhotoPath == "" {
		c.PhotoPath = filepath.Join(c.DataDir, "photos")
	}
	if c.LockPath == "" {
		c.LockPath = c.DBPath + ".lock"
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Capture.DefaultWidth <= 0 || c.Capture.DefaultHeight <= 0 {
		errs = append(errs, errors.New("capture default size must be positive"))
	}
	if !validQuality(c.Capture.FullQuality) {
		errs = append(errs, fmt.Errorf("capture full_quality %d outside 1..100", c.Capture.FullQuality))
	}
	if !validQuality(c.Capture.ThumbQuality) {
		errs = append(errs, fmt.Errorf("capture thumb_quality %d outside 1..100", c.Capture.ThumbQuality))
	}
	if c.Capture.ThumbMaxSide <= 0 {
		errs = append(errs, errors.New("capture thumb_max_side must be positive"))
	}
	if c.Capture.MaxFrameSide <= 0 {
		errs = append(errs, errors.New("capture max_frame_side must be positive"))
	}
	if c.Capture.BlurThreshold < 0 {
		errs = append(errs, errors.New("capture blur_threshold must not be negative"))
	}
	if c.Export.CompressionLevel < -1 || c.Export.CompressionLevel > 9 {
		errs = append(errs, fmt.Errorf("export compression_level %d outside -1..9", c.Export.CompressionLevel))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves Export.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Export.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Export.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown export timezone %q: %w", c.Export.Timezone, err)
	}
	return loc, nil
}

func validQuality(q int) bool { return q >= 1 && q <= 100 }

func applyEnv(cfg *Config) error {
	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DataDir = getEnv("STAMPCAM_DATA_DIR", cfg.DataDir)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.PhotoPath = getEnv("PHOTO_LOCAL_PATH", cfg.PhotoPath)
	cfg.LockPath = getEnv("STAMPCAM_LOCK_PATH", cfg.LockPath)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.Export.OutputDir = getEnv("STAMPCAM_EXPORT_DIR", cfg.Export.OutputDir)
	cfg.Export.Timezone = getEnv("STAMPCAM_TIMEZONE", cfg.Export.Timezone)

	var errs []error
	var err error
	if cfg.Capture.ThumbMaxSide, err = getEnvInt("STAMPCAM_THUMB_MAX_SIDE", cfg.Capture.ThumbMaxSide); err != nil {
		errs = append(errs, err)
	}
	if cfg.Capture.MaxFrameSide, err = getEnvInt("STAMPCAM_MAX_FRAME_SIDE", cfg.Capture.MaxFrameSide); err != nil {
		errs = append(errs, err)
	}
	if cfg.Export.CompressionLevel, err = getEnvInt("STAMPCAM_COMPRESSION_LEVEL", cfg.Export.CompressionLevel); err != nil {
		errs = append(errs, err)
	}
	if raw, ok := os.LookupEnv("STAMPCAM_BLUR_THRESHOLD"); ok {
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			errs = append(errs, fmt.Errorf("STAMPCAM_BLUR_THRESHOLD: %w", perr))
		} else {
			cfg.Capture.BlurThreshold = v
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
