// Package config holds the immutable run configuration. Values are layered
// defaults, then an optional TOML file, then IMPOSER_* environment variables.
// The CLI applies explicitly set flags last.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/lehigh-university-libraries/imposer/internal/geometry"
	"github.com/lehigh-university-libraries/imposer/internal/imposition"
	"github.com/lehigh-university-libraries/imposer/internal/manifest"
	"github.com/lehigh-university-libraries/imposer/internal/raster"
)

const envPrefix = "IMPOSER_"

type Config struct {
	BaseDir     string   `toml:"base_dir"`
	Manifests   []string `toml:"manifests"`
	ManifestDir string   `toml:"manifest_dir"`
	InputDir    string   `toml:"input_dir"`
	// OutputDir defaults to print/ or ebook/ depending on Mode
	OutputDir string `toml:"output_dir"`

	Mode   imposition.Mode `toml:"mode"`
	Format raster.Format   `toml:"format"`

	Guides                bool `toml:"guides"`
	HalveFrontCoverGutter bool `toml:"halve_front_cover_gutter"`

	Sheet   geometry.Target  `toml:"sheet"`
	Gutters geometry.Gutters `toml:"gutters"`

	// Workers is the number of sheets rendered at once
	Workers int `toml:"workers"`
	// DefaultDPI is used when the first page stores no resolution
	DefaultDPI float64 `toml:"default_dpi"`
	Report     bool    `toml:"report"`
}

func Default() Config {
	return Config{
		BaseDir:               ".",
		Manifests:             []string{"red", "yellow", "blue"},
		ManifestDir:           "manifest",
		InputDir:              "pages",
		Mode:                  imposition.Signature,
		Format:                raster.PDF,
		Guides:                true,
		HalveFrontCoverGutter: true,
		Sheet:                 geometry.Letter,
		Gutters:               geometry.DefaultGutters,
		Workers:               1,
		DefaultDPI:            300,
		Report:                true,
	}
}

// Load layers defaults, the TOML file at path (skipped when empty) and the
// environment
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		cfg, err = LoadFile(path, cfg)
		if err != nil {
			return Config{}, err
		}
	}
	cfg = FromEnv(cfg)
	cfg.Normalize()
	return cfg, nil
}

// LoadFile decodes a TOML file over base. Keys absent from the file keep
// their value from base.
func LoadFile(path string, base Config) (Config, error) {
	cfg := base
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("Unknown config key", "file", path, "key", key.String())
	}
	return cfg, nil
}

// FromEnv overrides base with any IMPOSER_* variables that are set
func FromEnv(base Config) Config {
	cfg := base
	cfg.BaseDir = envOr("BASE_DIR", cfg.BaseDir)
	if v := os.Getenv(envPrefix + "MANIFESTS"); v != "" {
		cfg.Manifests = manifest.SplitNames(v)
	}
	cfg.ManifestDir = envOr("MANIFEST_DIR", cfg.ManifestDir)
	cfg.InputDir = envOr("INPUT_DIR", cfg.InputDir)
	cfg.OutputDir = envOr("OUTPUT_DIR", cfg.OutputDir)
	cfg.Mode = imposition.Mode(envOr("MODE", string(cfg.Mode)))
	cfg.Format = raster.Format(envOr("FORMAT", string(cfg.Format)))
	cfg.Guides = envBool("GUIDES", cfg.Guides)
	cfg.HalveFrontCoverGutter = envBool("HALVE_FRONT_COVER_GUTTER", cfg.HalveFrontCoverGutter)
	cfg.Sheet.WidthIn = envFloat("SHEET_WIDTH", cfg.Sheet.WidthIn)
	cfg.Sheet.HeightIn = envFloat("SHEET_HEIGHT", cfg.Sheet.HeightIn)
	cfg.Gutters.CoverIn = envFloat("COVER_GUTTER", cfg.Gutters.CoverIn)
	cfg.Gutters.PageIn = envFloat("PAGE_GUTTER", cfg.Gutters.PageIn)
	cfg.Gutters.IncrementIn = envFloat("GUTTER_INCREMENT", cfg.Gutters.IncrementIn)
	cfg.Workers = envInt("WORKERS", cfg.Workers)
	cfg.DefaultDPI = envFloat("DEFAULT_DPI", cfg.DefaultDPI)
	cfg.Report = envBool("REPORT", cfg.Report)
	return cfg
}

// Normalize canonicalizes format aliases such as "jpg" and ".PNG". Unknown
// values are left for Validate to reject.
func (c *Config) Normalize() {
	if f, err := raster.ParseFormat(string(c.Format)); err == nil {
		c.Format = f
	}
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Manifests) == 0 {
		errs = append(errs, errors.New("at least one manifest is required"))
	}
	if _, err := imposition.ParseMode(string(c.Mode)); err != nil {
		errs = append(errs, err)
	}
	if f, err := raster.ParseFormat(string(c.Format)); err != nil {
		errs = append(errs, err)
	} else if f != c.Format {
		errs = append(errs, fmt.Errorf("format %q is not normalized", c.Format))
	}
	if c.Sheet.WidthIn <= 0 || c.Sheet.HeightIn <= 0 {
		errs = append(errs, fmt.Errorf("sheet size must be positive, got %g x %g in", c.Sheet.WidthIn, c.Sheet.HeightIn))
	}
	if err := c.Gutters.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.DefaultDPI <= 0 {
		errs = append(errs, fmt.Errorf("default DPI must be positive, got %g", c.DefaultDPI))
	}
	return errors.Join(errs...)
}

// PlannerOptions returns the imposition policies of this run
func (c Config) PlannerOptions() imposition.Options {
	return imposition.Options{
		Mode:                  c.Mode,
		Guides:                c.Guides,
		HalveFrontCoverGutter: c.HalveFrontCoverGutter,
	}
}

func (c Config) ManifestPath() string {
	return c.path(c.ManifestDir)
}

func (c Config) InputPath() string {
	return c.path(c.InputDir)
}

func (c Config) OutputPath() string {
	dir := c.OutputDir
	if dir == "" {
		dir = "print"
		if c.Mode == imposition.Spread {
			dir = "ebook"
		}
	}
	return c.path(dir)
}

func (c Config) path(dir string) string {
	if filepath.IsAbs(dir) || c.BaseDir == "" {
		return filepath.Clean(dir)
	}
	return filepath.Join(c.BaseDir, dir)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("Ignoring invalid integer", "key", envPrefix+key, "value", v)
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("Ignoring invalid number", "key", envPrefix+key, "value", v)
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		slog.Warn("Ignoring invalid boolean", "key", envPrefix+key, "value", v)
	}
	return fallback
}
