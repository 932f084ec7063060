// Package preview writes viewable PNG copies of filtered bitmaps.
package preview

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Path returns bmpPath with its extension replaced by .png.
func Path(bmpPath string) string {
	return strings.TrimSuffix(bmpPath, filepath.Ext(bmpPath)) + ".png"
}

// Save writes img to path, scaled to width pixels wide when width is
// positive and differs from the image. The aspect ratio is preserved.
// The format follows the extension of path.
func Save(path string, img image.Image, width int) error {
	if width < 0 {
		return fmt.Errorf("invalid preview width %d", width)
	}
	if width > 0 && width != img.Bounds().Dx() {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save preview: %w", err)
	}
	return nil
}
