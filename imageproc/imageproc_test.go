package imageproc

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// gradientPage builds an RGBA page with a luminance gradient and some ink.
func gradientPage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x * 255) / w)
			if y%10 == 0 {
				v = 20 // ink rows
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// flatColor builds a page filled with one color.
func flatColor(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := gradientPage(40, 30)

	for _, ext := range []string{".png", ".jpg", ".bmp", ".webp"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "page"+ext)
			if err := Save(src, path); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			b := loaded.Bounds()
			if b.Dx() != 40 || b.Dy() != 30 {
				t.Errorf("round trip dims %v, want 40x30", b)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("this is not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrCorruptInput) {
		t.Errorf("got %v, want ErrCorruptInput", err)
	}
}

func TestSave_UnsupportedFormat(t *testing.T) {
	err := Save(gradientPage(8, 8), filepath.Join(t.TempDir(), "page.xyz"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestIsSupportedInput(t *testing.T) {
	for _, path := range []string{"a.png", "b.JPG", "c.webp", "d.jpeg", "e.bmp", "f.gif"} {
		if !IsSupportedInput(path) {
			t.Errorf("%s should be supported", path)
		}
	}
	for _, path := range []string{"a.txt", "b.pdf", "c", "d.tiff"} {
		if IsSupportedInput(path) {
			t.Errorf("%s should not be supported", path)
		}
	}
}

func TestPrepare_ScalesDownToGranularity(t *testing.T) {
	src := gradientPage(2000, 3000)

	work, meta, err := Prepare(src, 1024)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if meta.WorkH != 1024 {
		t.Errorf("long side %d, want 1024", meta.WorkH)
	}
	// 2000 * (1024/3000) = 682.6 -> 682 -> rounded down to 680.
	if meta.WorkW != 680 {
		t.Errorf("short side %d, want 680", meta.WorkW)
	}
	if meta.WorkW%Granularity != 0 || meta.WorkH%Granularity != 0 {
		t.Errorf("working dims %dx%d not granularity multiples", meta.WorkW, meta.WorkH)
	}
	if b := work.Bounds(); b.Dx() != meta.WorkW || b.Dy() != meta.WorkH {
		t.Errorf("image dims %v disagree with meta %dx%d", b, meta.WorkW, meta.WorkH)
	}
	if !meta.Scaled {
		t.Error("meta should record scaling")
	}
}

func TestPrepare_NeverUpscales(t *testing.T) {
	src := gradientPage(400, 600)

	_, meta, err := Prepare(src, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if meta.WorkW > 400 || meta.WorkH > 600 {
		t.Errorf("upscaled to %dx%d", meta.WorkW, meta.WorkH)
	}
	// 400 and 600 are already multiples of 8, so no resize at all.
	if meta.Scaled {
		t.Error("granularity-aligned small page should not be rescaled")
	}
}

func TestPrepare_RoundsDownOddDimensions(t *testing.T) {
	src := gradientPage(203, 301)

	_, meta, err := Prepare(src, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if meta.WorkW != 200 || meta.WorkH != 296 {
		t.Errorf("working dims %dx%d, want 200x296", meta.WorkW, meta.WorkH)
	}
}

func TestPrepare_Invalid(t *testing.T) {
	if _, _, err := Prepare(nil, 1024); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("nil image: got %v", err)
	}
	if _, _, err := Prepare(gradientPage(10, 10), 4); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("tiny max side: got %v", err)
	}
}

func TestPostprocess_RestoresDimensions(t *testing.T) {
	src := gradientPage(2000, 3000)
	work, meta, err := Prepare(src, 1024)
	if err != nil {
		t.Fatal(err)
	}

	restored, err := Postprocess(work, meta)
	if err != nil {
		t.Fatalf("Postprocess failed: %v", err)
	}
	if b := restored.Bounds(); b.Dx() != 2000 || b.Dy() != 3000 {
		t.Errorf("restored dims %v, want 2000x3000", b)
	}
}

func TestPostprocess_NoOpWhenUnscaled(t *testing.T) {
	src := gradientPage(400, 600)
	work, meta, err := Prepare(src, 1024)
	if err != nil {
		t.Fatal(err)
	}

	restored, err := Postprocess(work, meta)
	if err != nil {
		t.Fatal(err)
	}
	if restored != work {
		t.Error("unscaled page must pass through untouched")
	}
}

func TestPostprocess_DimensionMismatch(t *testing.T) {
	meta := Meta{OrigW: 100, OrigH: 100, WorkW: 96, WorkH: 96, Scaled: true}
	_, err := Postprocess(gradientPage(50, 50), meta)
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("got %v, want ErrInvalidImage", err)
	}
}

func TestCompose_Invariant(t *testing.T) {
	const inkThreshold = 110
	original := gradientPage(64, 64)
	generated := flatColor(64, 64, color.RGBA{R: 200, G: 120, B: 60, A: 255})

	mask := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 20; y < 30; y++ {
		for x := 10; x < 40; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	out, err := Compose(generated, original, mask, inkThreshold)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	// The defining rule must hold at every pixel.
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			op := original.RGBAAt(x, y)
			luma := (299*int(op.R) + 587*int(op.G) + 114*int(op.B)) / 1000
			want := generated.RGBAAt(x, y)
			if luma <= inkThreshold || mask.GrayAt(x, y).Y != 0 {
				want = op
			}
			if got := out.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestCompose_NilMaskProtectsOnlyInk(t *testing.T) {
	original := flatColor(16, 16, color.RGBA{R: 250, G: 250, B: 250, A: 255})
	generated := flatColor(16, 16, color.RGBA{R: 10, G: 200, B: 10, A: 255})

	out, err := Compose(generated, original, nil, 110)
	if err != nil {
		t.Fatal(err)
	}
	// Bright original, no mask: every pixel comes from generated.
	if got := out.RGBAAt(8, 8); got != generated.RGBAAt(8, 8) {
		t.Errorf("got %v, want generated pixel", got)
	}
}

func TestCompose_DimensionMismatch(t *testing.T) {
	_, err := Compose(gradientPage(32, 32), gradientPage(64, 64), nil, 110)
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("got %v, want ErrInvalidImage", err)
	}

	badMask := image.NewGray(image.Rect(0, 0, 8, 8))
	_, err = Compose(gradientPage(32, 32), gradientPage(32, 32), badMask, 110)
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("mask mismatch: got %v, want ErrInvalidImage", err)
	}
}

func TestComparison(t *testing.T) {
	original := gradientPage(40, 60)
	colored := flatColor(40, 60, color.RGBA{R: 180, G: 90, B: 40, A: 255})

	sheet, err := Comparison(original, colored)
	if err != nil {
		t.Fatalf("Comparison failed: %v", err)
	}

	b := sheet.Bounds()
	if b.Dx() != 40+comparisonGutter+40 || b.Dy() != 60 {
		t.Errorf("sheet dims %v", b)
	}
	if got := sheet.RGBAAt(5, 5); got != original.RGBAAt(5, 5) {
		t.Errorf("left pane: got %v", got)
	}
	if got := sheet.RGBAAt(40+comparisonGutter+5, 5); got != colored.RGBAAt(5, 5) {
		t.Errorf("right pane: got %v", got)
	}
	// Gutter stays white.
	if got := sheet.RGBAAt(42, 30); (got != color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("gutter: got %v", got)
	}
}

func TestToRGBA(t *testing.T) {
	// NRGBA input (what imaging produces) converts cleanly.
	src := imaging.New(10, 10, color.NRGBA{R: 50, G: 100, B: 150, A: 255})
	out := ToRGBA(src)
	if b := out.Bounds(); b.Dx() != 10 || b.Dy() != 10 || b.Min != (image.Point{}) {
		t.Errorf("bounds %v", b)
	}
	if got := out.RGBAAt(5, 5); got.R != 50 || got.G != 100 || got.B != 150 {
		t.Errorf("pixel %v", got)
	}

	// Already-RGBA zero-origin input passes through.
	rgba := gradientPage(4, 4)
	if ToRGBA(rgba) != rgba {
		t.Error("zero-origin RGBA should pass through")
	}
}
