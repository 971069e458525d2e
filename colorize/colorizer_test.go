package colorize

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"colorizer_backend/batch"
	"colorizer_backend/core"
	"colorizer_backend/device"
	"colorizer_backend/imageproc"
	"colorizer_backend/mcruntime"
)

// stubWeights resolves every model id to the same fixture weight file, with
// optional per-id failures.
type stubWeights struct {
	path    string
	missing map[string]bool
}

func (s *stubWeights) WeightPath(id string) (string, error) {
	if s.missing[id] {
		return "", mcruntime.ErrModelNotFound
	}
	return s.path, nil
}

// newTestColorizer builds a Colorizer backed by fixture weights, a CPU-only
// device resolver, and a temp output directory.
func newTestColorizer(t *testing.T, weights *stubWeights) (*Colorizer, *core.Config) {
	t.Helper()
	cfg := &core.Config{OutputDir: t.TempDir()}
	manager := mcruntime.NewModelManager(weights)
	t.Cleanup(manager.Close)
	resolver := device.NewResolver(device.WithProbers(&device.CPUProber{}))
	return New(cfg, nil, resolver, manager), cfg
}

func fixtureWeights(t *testing.T) *stubWeights {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.safetensors")
	if err := os.WriteFile(path, []byte("not real weights"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &stubWeights{path: path}
}

// writePage renders a white page with an ink border and saves it as PNG.
func writePage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(230)
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				v = 10
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func testParams() mcruntime.Params {
	p := mcruntime.DefaultParams()
	p.Seed = 7
	p.Steps = 20
	return p
}

func TestColorizePage_WritesOutput(t *testing.T) {
	c, cfg := newTestColorizer(t, fixtureWeights(t))
	in := writePage(t, t.TempDir(), "page.png", 64, 80)
	out := filepath.Join(cfg.OutputDir, "page_colored.png")

	result, err := c.ColorizePage(context.Background(), in, out, testParams())
	if err != nil {
		t.Fatalf("ColorizePage failed: %v", err)
	}
	if result.OutputPath != out {
		t.Errorf("output path: got %q, want %q", result.OutputPath, out)
	}

	img, err := imageproc.Load(out)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 80 {
		t.Errorf("output dims: got %dx%d, want 64x80", b.Dx(), b.Dy())
	}
	if result.Metrics.WorkingWidth%8 != 0 || result.Metrics.WorkingHeight%8 != 0 {
		t.Errorf("working resolution %dx%d not granular",
			result.Metrics.WorkingWidth, result.Metrics.WorkingHeight)
	}
}

func TestColorizePage_PreservesInk(t *testing.T) {
	c, cfg := newTestColorizer(t, fixtureWeights(t))
	in := writePage(t, t.TempDir(), "page.png", 64, 64)
	out := filepath.Join(cfg.OutputDir, "page_colored.png")

	if _, err := c.ColorizePage(context.Background(), in, out, testParams()); err != nil {
		t.Fatalf("ColorizePage failed: %v", err)
	}

	img, err := imageproc.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	rgba := imageproc.ToRGBA(img)
	// The border is ink (value 10, below the default threshold) and the page
	// was not rescaled, so border pixels must come through unchanged.
	for x := 0; x < 64; x++ {
		px := rgba.RGBAAt(x, 0)
		if px.R != 10 || px.G != 10 || px.B != 10 {
			t.Fatalf("ink pixel (%d,0) altered: %+v", x, px)
		}
	}
}

func TestColorizePage_InvalidParams(t *testing.T) {
	c, cfg := newTestColorizer(t, fixtureWeights(t))
	in := writePage(t, t.TempDir(), "page.png", 64, 64)

	p := testParams()
	p.Strength = 0.9
	_, err := c.ColorizePage(context.Background(), in, filepath.Join(cfg.OutputDir, "out.png"), p)
	if !errors.Is(err, mcruntime.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestColorizePage_MissingInput(t *testing.T) {
	c, cfg := newTestColorizer(t, fixtureWeights(t))
	_, err := c.ColorizePage(context.Background(),
		filepath.Join(t.TempDir(), "nope.png"),
		filepath.Join(cfg.OutputDir, "out.png"), testParams())
	if err == nil {
		t.Fatal("expected an error for a missing input file")
	}
}

func TestColorizePage_MissingEngineWeights(t *testing.T) {
	weights := fixtureWeights(t)
	weights.missing = map[string]bool{GenerativeModelID: true}
	c, cfg := newTestColorizer(t, weights)
	in := writePage(t, t.TempDir(), "page.png", 64, 64)

	_, err := c.ColorizePage(context.Background(), in, filepath.Join(cfg.OutputDir, "out.png"), testParams())
	if !errors.Is(err, mcruntime.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestColorizePage_FallsBackWithoutLineArtModel(t *testing.T) {
	weights := fixtureWeights(t)
	weights.missing = map[string]bool{LineArtModelID: true}
	c, cfg := newTestColorizer(t, weights)
	in := writePage(t, t.TempDir(), "page.png", 64, 64)
	out := filepath.Join(cfg.OutputDir, "page_colored.png")

	if _, err := c.ColorizePage(context.Background(), in, out, testParams()); err != nil {
		t.Fatalf("expected the fallback extractor to carry the page: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestColorizePage_ComparisonSheet(t *testing.T) {
	c, cfg := newTestColorizer(t, fixtureWeights(t))
	cfg.SaveComparison = true
	in := writePage(t, t.TempDir(), "page.png", 64, 64)
	out := filepath.Join(cfg.OutputDir, "page_colored.png")

	result, err := c.ColorizePage(context.Background(), in, out, testParams())
	if err != nil {
		t.Fatalf("ColorizePage failed: %v", err)
	}
	want := filepath.Join(cfg.OutputDir, "page_colored_comparison.png")
	if result.ComparisonPath != want {
		t.Errorf("comparison path: got %q, want %q", result.ComparisonPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("comparison sheet missing: %v", err)
	}
}

func TestColorizePage_SeedDeterminism(t *testing.T) {
	c, cfg := newTestColorizer(t, fixtureWeights(t))
	in := writePage(t, t.TempDir(), "page.png", 64, 64)
	outA := filepath.Join(cfg.OutputDir, "a.png")
	outB := filepath.Join(cfg.OutputDir, "b.png")

	p := testParams()
	if _, err := c.ColorizePage(context.Background(), in, outA, p); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ColorizePage(context.Background(), in, outB, p); err != nil {
		t.Fatal(err)
	}

	a, err := os.ReadFile(outA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(outB)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("same seed produced different outputs")
	}
}

func TestColorizeBatch_Directory(t *testing.T) {
	c, cfg := newTestColorizer(t, fixtureWeights(t))
	dir := t.TempDir()
	writePage(t, dir, "p1.png", 64, 64)
	writePage(t, dir, "p2.png", 64, 64)
	writePage(t, dir, "p3.png", 64, 64)

	result, err := c.ColorizeBatch(context.Background(), []string{dir}, testParams(), nil)
	if err != nil {
		t.Fatalf("ColorizeBatch failed: %v", err)
	}
	if result.Status != batch.JobCompleted {
		t.Errorf("status: got %s, want %s", result.Status, batch.JobCompleted)
	}
	if result.Succeeded != 3 || result.Failed != 0 {
		t.Errorf("counts: got %d/%d, want 3/0", result.Succeeded, result.Failed)
	}
	for _, name := range []string{"p1_colored.png", "p2_colored.png", "p3_colored.png"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
}

func TestColorizeBatch_CorruptPageIsItemFault(t *testing.T) {
	c, _ := newTestColorizer(t, fixtureWeights(t))
	dir := t.TempDir()
	writePage(t, dir, "good.png", 64, 64)
	if err := os.WriteFile(filepath.Join(dir, "bad.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := c.ColorizeBatch(context.Background(), []string{dir}, testParams(), nil)
	if err != nil {
		t.Fatalf("a corrupt page must not fail the job: %v", err)
	}
	if result.Status != batch.JobCompletedWithErrors {
		t.Errorf("status: got %s, want %s", result.Status, batch.JobCompletedWithErrors)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("counts: got %d/%d, want 1/1", result.Succeeded, result.Failed)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one recorded error, got %d", len(result.Errors))
	}
}

func TestColorizeBatch_MissingEngineWeightsFailsJob(t *testing.T) {
	weights := fixtureWeights(t)
	weights.missing = map[string]bool{GenerativeModelID: true}
	c, _ := newTestColorizer(t, weights)
	dir := t.TempDir()
	writePage(t, dir, "p1.png", 64, 64)

	result, err := c.ColorizeBatch(context.Background(), []string{dir}, testParams(), nil)
	if err == nil {
		t.Fatal("expected a job-level error when the engine model cannot load")
	}
	if result.Status != batch.JobFailed {
		t.Errorf("status: got %s, want %s", result.Status, batch.JobFailed)
	}
}

func TestColorizeBatch_ProgressEvents(t *testing.T) {
	c, _ := newTestColorizer(t, fixtureWeights(t))
	dir := t.TempDir()
	writePage(t, dir, "p1.png", 64, 64)
	writePage(t, dir, "p2.png", 64, 64)

	progress := make(chan batch.Progress, 8)
	if _, err := c.ColorizeBatch(context.Background(), []string{dir}, testParams(), progress); err != nil {
		t.Fatal(err)
	}
	close(progress)

	var events []batch.Progress
	for p := range progress {
		events = append(events, p)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(events))
	}
	last := events[len(events)-1]
	if last.Current != 2 || last.Total != 2 {
		t.Errorf("final event: got %d/%d, want 2/2", last.Current, last.Total)
	}
}

func TestComparisonPath(t *testing.T) {
	got := comparisonPath("/out/page_colored.png")
	want := "/out/page_colored_comparison.png"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
