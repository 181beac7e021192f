// Package raster decodes page images, composes imposed sheets and writes
// them out with the source resolution.
package raster

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageInfo is what the planner needs to know about a page image
type ImageInfo struct {
	Path       string     `yaml:"path"`
	Format     string     `yaml:"format"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Resolution Resolution `yaml:"resolution"`
	// HasResolution is false when the file stores no density
	HasResolution bool `yaml:"has_resolution"`
}

// Info reads the dimensions and density of an image without decoding it
func Info(path string) (ImageInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImageInfo{}, err
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to read image header %s: %w", path, err)
	}

	info := ImageInfo{
		Path:   path,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}

	res, ok, err := ReadResolution(path)
	if err != nil {
		slog.Debug("Failed to read image resolution", "path", path, "error", err)
	}
	info.Resolution, info.HasResolution = res, ok

	return info, nil
}
