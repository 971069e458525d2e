// Package imageproc handles page image IO and the pixel-level transforms
// around an engine run: working-resolution preparation, ink and text
// preserving composition, and final restoration.
package imageproc

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Sentinel errors for image IO and transforms.
var (
	ErrInvalidImage      = errors.New("imageproc: invalid image")
	ErrCorruptInput      = errors.New("imageproc: cannot decode input image")
	ErrUnsupportedFormat = errors.New("imageproc: unsupported output format")
)

// supportedInputExts lists the page formats accepted for colorization.
var supportedInputExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// IsSupportedInput reports whether a file extension is a loadable page format.
func IsSupportedInput(path string) bool {
	return supportedInputExts[strings.ToLower(filepath.Ext(path))]
}

// Load reads a page image from disk. Format is detected by extension for
// webp and by content for everything else.
func Load(path string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		img, err := webp.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptInput, path, err)
		}
		return img, nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptInput, path, err)
	}
	return img, nil
}

// Save writes an image to disk, selecting the format by extension.
func Save(img image.Image, path string) error {
	if img == nil {
		return ErrInvalidImage
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".webp" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()

		if err := webp.Encode(f, img, &webp.Options{Quality: 90}); err != nil {
			return fmt.Errorf("encode webp %s: %w", path, err)
		}
		return nil
	}

	if err := imaging.Save(img, path); err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
		}
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// ToRGBA converts any image to *image.RGBA with zero-origin bounds.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
