// Package colorize is the facade over the colorization pipeline. It wires
// device resolution, model lifecycle, line art extraction, text detection,
// image preparation, and the engines into single-page and batch operations.
package colorize

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"colorizer_backend/core"
	"colorizer_backend/db"
	"colorizer_backend/device"
	"colorizer_backend/imageproc"
	"colorizer_backend/lineart"
	"colorizer_backend/logging"
	"colorizer_backend/mcruntime"
	"colorizer_backend/textdetect"
)

// Model ids in the weight registry.
const (
	LineArtModelID    = "lineart-extractor"
	FastModelID       = "colorizer-fast"
	GenerativeModelID = "colorizer-generative"
)

// textMaskPadding grows detected text boxes before merging, in pixels.
const textMaskPadding = 6

// Result describes one colorized page.
type Result struct {
	// OutputPath is the written page.
	OutputPath string
	// ComparisonPath is the side-by-side sheet, when enabled.
	ComparisonPath string
	// Metrics holds per-stage timings and the working resolution.
	Metrics logging.PageMetrics
}

// Colorizer composes the pipeline components.
type Colorizer struct {
	cfg      *core.Config
	logger   *zap.Logger
	resolver *device.Resolver
	manager  *mcruntime.ModelManager
	extract  *lineart.Extractor
	detect   *textdetect.Detector
	recorder *db.Recorder
}

// Option configures a Colorizer.
type Option func(*Colorizer)

// WithRecorder attaches a job history recorder.
func WithRecorder(recorder *db.Recorder) Option {
	return func(c *Colorizer) {
		c.recorder = recorder
	}
}

// WithDetectorConfig overrides the text detector tunables.
func WithDetectorConfig(cfg textdetect.Config) Option {
	return func(c *Colorizer) {
		c.detect = textdetect.NewDetector(cfg, c.logger)
	}
}

// New creates a Colorizer.
func New(cfg *core.Config, logger *zap.Logger, resolver *device.Resolver, manager *mcruntime.ModelManager, opts ...Option) *Colorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Colorizer{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		manager:  manager,
		extract:  lineart.NewExtractor(logger),
		detect:   textdetect.NewDetector(textdetect.DefaultConfig(), logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// modelIDFor maps an engine tag to its weight registry id.
func modelIDFor(tag mcruntime.EngineTag) string {
	if tag == mcruntime.EngineFast {
		return FastModelID
	}
	return GenerativeModelID
}

// ColorizePage colorizes a single page from inputPath into outPath.
func (c *Colorizer) ColorizePage(ctx context.Context, inputPath, outPath string, params mcruntime.Params) (*Result, error) {
	if err := mcruntime.ValidateParams(params); err != nil {
		return nil, err
	}

	handle, err := c.manager.Acquire(ctx, modelIDFor(params.Engine))
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", modelIDFor(params.Engine), err)
	}
	defer c.manager.Release(handle)

	lineArtHandle := c.acquireLineArt(ctx)
	if lineArtHandle != nil {
		defer c.manager.Release(lineArtHandle)
	}

	return c.colorizeOne(ctx, inputPath, outPath, params, handle, lineArtHandle)
}

// acquireLineArt acquires the line art model, or returns nil to select the
// fallback extractor.
func (c *Colorizer) acquireLineArt(ctx context.Context) *mcruntime.Handle {
	h, err := c.manager.Acquire(ctx, LineArtModelID)
	if err != nil {
		c.logger.Warn("line art model unavailable, using fallback extractor", zap.Error(err))
		return nil
	}
	return h
}

// colorizeOne runs the full pipeline for one page with models already held.
func (c *Colorizer) colorizeOne(ctx context.Context, inputPath, outPath string, params mcruntime.Params, handle, lineArtHandle *mcruntime.Handle) (*Result, error) {
	start := time.Now()
	sel := c.resolver.Resolve(ctx)

	img, err := imageproc.Load(inputPath)
	if err != nil {
		return nil, err
	}

	work, meta, err := imageproc.Prepare(img, params.MaxSide)
	if err != nil {
		return nil, err
	}

	lineArtStart := time.Now()
	var lineArtCtx *mcruntime.ModelContext
	if lineArtHandle != nil {
		lineArtCtx = lineArtHandle.Context()
	}
	lineMap, err := c.extract.Extract(lineArtCtx, img, meta.WorkW, meta.WorkH)
	if err != nil {
		return nil, fmt.Errorf("line art: %w", err)
	}
	lineArtDur := time.Since(lineArtStart)

	maskStart := time.Now()
	var textMask *textdetect.Mask
	if params.ProtectText {
		textMask, err = c.detect.Detect(work, textMaskPadding)
		if err != nil {
			return nil, fmt.Errorf("text detection: %w", err)
		}
	}
	maskDur := time.Since(maskStart)

	engine, err := mcruntime.NewEngine(params.Engine)
	if err != nil {
		return nil, err
	}

	transformStart := time.Now()
	var generated *image.RGBA
	err = c.manager.WithRunLock(ctx, func() error {
		out, runErr := engine.Run(ctx, handle, work, lineMap.Gray, params)
		if runErr != nil {
			return runErr
		}
		generated = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("engine run: %w", err)
	}
	transformDur := time.Since(transformStart)

	composeStart := time.Now()
	composed, err := imageproc.Compose(generated, work, maskGray(textMask), params.InkThreshold)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}

	final, err := imageproc.Postprocess(composed, meta)
	if err != nil {
		return nil, fmt.Errorf("postprocess: %w", err)
	}
	composeDur := time.Since(composeStart)

	if err := imageproc.Save(final, outPath); err != nil {
		return nil, err
	}

	result := &Result{
		OutputPath: outPath,
		Metrics: logging.PageMetrics{
			Page:          filepath.Base(inputPath),
			Engine:        string(params.Engine),
			Device:        string(sel.Backend),
			Steps:         stepsFor(params),
			WorkingWidth:  meta.WorkW,
			WorkingHeight: meta.WorkH,
			LineArt:       lineArtDur,
			TextMask:      maskDur,
			Transform:     transformDur,
			Compose:       composeDur,
			Total:         time.Since(start),
		},
	}

	if c.cfg != nil && c.cfg.SaveComparison {
		sheet, cmpErr := imageproc.Comparison(img, final)
		if cmpErr == nil {
			cmpPath := comparisonPath(outPath)
			if saveErr := imageproc.Save(sheet, cmpPath); saveErr == nil {
				result.ComparisonPath = cmpPath
			} else {
				c.logger.Warn("comparison save failed", zap.Error(saveErr))
			}
		}
	}

	c.logger.Info("page colorized", logging.PageFields(result.Metrics))
	return result, nil
}

// stepsFor reports the sampling step count, zero for the fast engine.
func stepsFor(params mcruntime.Params) int {
	if params.Engine == mcruntime.EngineFast {
		return 0
	}
	return params.Steps
}

// maskGray unwraps the detector mask bitmap, nil when protection is off or
// nothing was detected.
func maskGray(mask *textdetect.Mask) *image.Gray {
	if mask == nil || mask.Bitmap == nil {
		return nil
	}
	return mask.Bitmap
}

// comparisonPath derives the side-by-side sheet path from the output path.
func comparisonPath(outPath string) string {
	ext := filepath.Ext(outPath)
	return strings.TrimSuffix(outPath, ext) + "_comparison" + ext
}
