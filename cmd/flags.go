package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lehigh-university-libraries/imposer/internal/config"
	"github.com/lehigh-university-libraries/imposer/internal/imposition"
	"github.com/lehigh-university-libraries/imposer/internal/manifest"
	"github.com/lehigh-university-libraries/imposer/internal/raster"
)

// addConfigFlags registers the flags shared by impose and plan. Defaults
// are shown for help only; a flag overrides the config file and environment
// only when it is set.
func addConfigFlags(fs *pflag.FlagSet) {
	d := config.Default()
	fs.String("base-dir", d.BaseDir, "Base directory for manifest, input and output directories")
	fs.String("manifests", "red,yellow,blue", "Comma-separated list of manifest names")
	fs.String("manifest-dir", d.ManifestDir, "Directory of manifest files")
	fs.String("input-dir", d.InputDir, "Directory of page images")
	fs.String("output-dir", "", "Directory for output files (default print/, or ebook/ in spread mode)")
	fs.String("mode", string(d.Mode), "Imposition mode: signature or spread")
	fs.String("format", string(d.Format), "Sheet format: pdf, png or jpeg")
	fs.Bool("guides", d.Guides, "Draw registration guides on even sheets")
	fs.Bool("center-cover", d.HalveFrontCoverGutter, "Halve the gutter of the outer cover sheet to center it")
	fs.Float64("sheet-width", d.Sheet.WidthIn, "Sheet width in inches")
	fs.Float64("sheet-height", d.Sheet.HeightIn, "Sheet height in inches")
	fs.Float64("cover-gutter", d.Gutters.CoverIn, "Cover gutter in inches")
	fs.Float64("page-gutter", d.Gutters.PageIn, "Page gutter in inches")
	fs.Float64("gutter-increment", d.Gutters.IncrementIn, "Page gutter increment in inches per two sheets")
	fs.Int("workers", d.Workers, "Number of sheets rendered concurrently")
	fs.Float64("default-dpi", d.DefaultDPI, "Resolution used when the first page stores none")
	fs.Bool("report", d.Report, "Write report.yaml next to the sheets")
}

// loadConfig builds the run configuration: defaults, --config file,
// IMPOSER_* environment, then flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	fs := cmd.Flags()
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	float := func(name string, dst *float64) {
		if fs.Changed(name) {
			*dst, _ = fs.GetFloat64(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if fs.Changed(name) {
			*dst, _ = fs.GetBool(name)
		}
	}

	str("base-dir", &cfg.BaseDir)
	str("manifest-dir", &cfg.ManifestDir)
	str("input-dir", &cfg.InputDir)
	str("output-dir", &cfg.OutputDir)
	if fs.Changed("manifests") {
		v, _ := fs.GetString("manifests")
		cfg.Manifests = manifest.SplitNames(v)
	}
	if fs.Changed("mode") {
		v, _ := fs.GetString("mode")
		cfg.Mode = imposition.Mode(v)
	}
	if fs.Changed("format") {
		v, _ := fs.GetString("format")
		cfg.Format = raster.Format(v)
	}
	boolean("guides", &cfg.Guides)
	boolean("center-cover", &cfg.HalveFrontCoverGutter)
	boolean("report", &cfg.Report)
	float("sheet-width", &cfg.Sheet.WidthIn)
	float("sheet-height", &cfg.Sheet.HeightIn)
	float("cover-gutter", &cfg.Gutters.CoverIn)
	float("page-gutter", &cfg.Gutters.PageIn)
	float("gutter-increment", &cfg.Gutters.IncrementIn)
	float("default-dpi", &cfg.DefaultDPI)
	if fs.Changed("workers") {
		cfg.Workers, _ = fs.GetInt("workers")
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
