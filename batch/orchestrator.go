package batch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// PageProcessor colorizes one page. The colorize facade implements this.
type PageProcessor interface {
	ProcessPage(ctx context.Context, inputPath, outputPath string) error
}

// JobPreparer is an optional PageProcessor extension. PrepareJob runs once
// before the first item (model acquisition); its failure is a job-level
// fault. The returned release func runs when the job ends.
type JobPreparer interface {
	PrepareJob(ctx context.Context) (release func(), err error)
}

// Orchestrator runs batch jobs strictly sequentially: one page at a time,
// cancellation honored at item boundaries, per-item failures recorded
// without stopping the loop.
type Orchestrator struct {
	proc      PageProcessor
	outputDir string
	zipOutput bool
	logger    *zap.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithZipOutput enables packaging archive-job successes into an output zip.
func WithZipOutput(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.zipOutput = enabled
	}
}

// WithOrchestratorLogger attaches a logger.
func WithOrchestratorLogger(logger *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an Orchestrator writing outputs under outputDir.
func NewOrchestrator(proc PageProcessor, outputDir string, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		proc:      proc,
		outputDir: outputDir,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Run processes every item of a job in order. Progress events are sent to
// the progress channel after each item with a non-blocking send: a slow
// consumer drops events, it never stalls the loop. The channel may be nil.
//
// Run returns an error only for job-level faults; per-item failures are
// recorded on the job and reported through its final status.
func (o *Orchestrator) Run(ctx context.Context, job *Job, progress chan<- Progress) error {
	defer job.cleanupTemp()

	job.setStatus(JobProcessing, "")
	o.logger.Info("batch job started",
		zap.String("job_id", job.ID),
		zap.Int("total", job.Total()))

	if preparer, ok := o.proc.(JobPreparer); ok {
		release, err := preparer.PrepareJob(ctx)
		if err != nil {
			job.setStatus(JobFailed, fmt.Sprintf("prepare: %v", err))
			return fmt.Errorf("prepare job: %w", err)
		}
		defer release()
	}

	total := job.Total()
	failed := 0
	cancelled := false

	for i := range job.items {
		if ctx.Err() != nil || job.IsCancelled() {
			cancelled = true
			o.skipRemaining(job, i)
			break
		}

		job.mu.Lock()
		item := &job.items[i]
		item.Status = ItemProcessing
		job.mu.Unlock()

		outPath := filepath.Join(o.outputDir, OutputName(item.RelPath))
		err := o.processOne(ctx, item.Source, outPath)

		job.mu.Lock()
		if err != nil {
			item.Status = ItemFailed
			item.Err = err.Error()
			job.errs = append(job.errs, ItemError{Item: item.RelPath, Message: err.Error()})
			failed++
			o.logger.Warn("page failed",
				zap.String("job_id", job.ID),
				zap.String("page", item.RelPath),
				zap.Error(err))
		} else {
			item.Status = ItemSucceeded
			item.OutPath = outPath
		}
		job.current = i + 1
		current := job.current
		rel := item.RelPath
		job.mu.Unlock()

		if progress != nil {
			event := Progress{
				Current:  current,
				Total:    total,
				Filename: rel,
				Percent:  current * 100 / total,
			}
			select {
			case progress <- event:
			default:
			}
		}
	}

	switch {
	case cancelled:
		job.setStatus(JobCancelled, "cancelled")
	case failed == 0:
		job.setStatus(JobCompleted, "")
	default:
		job.setStatus(JobCompletedWithErrors, fmt.Sprintf("%d of %d pages failed", failed, total))
	}

	if o.zipOutput && job.ArchiveStem != "" && !cancelled {
		if err := o.writeArchive(job); err != nil {
			o.logger.Warn("output archive failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	snap := job.Snapshot()
	o.logger.Info("batch job finished",
		zap.String("job_id", job.ID),
		zap.String("status", string(snap.Status)),
		zap.Int("failed", failed))
	return nil
}

// processOne colorizes a single page into outPath, creating parent dirs.
func (o *Orchestrator) processOne(ctx context.Context, src, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return o.proc.ProcessPage(ctx, src, outPath)
}

// skipRemaining marks every item from index on as skipped.
func (o *Orchestrator) skipRemaining(job *Job, from int) {
	job.mu.Lock()
	defer job.mu.Unlock()
	for i := from; i < len(job.items); i++ {
		if job.items[i].Status == ItemQueued {
			job.items[i].Status = ItemSkipped
		}
	}
}

// writeArchive packages the job's successful outputs into
// <archive stem>_colored.zip under their original relative names.
func (o *Orchestrator) writeArchive(job *Job) error {
	snap := job.Snapshot()

	var successes []Item
	for _, item := range snap.Items {
		if item.Status == ItemSucceeded {
			successes = append(successes, item)
		}
	}
	if len(successes) == 0 {
		return nil
	}

	archivePath := filepath.Join(o.outputDir, snap.ArchiveStem+"_colored.zip")
	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	for _, item := range successes {
		if err := addToArchive(w, item.OutPath, filepath.ToSlash(item.RelPath)); err != nil {
			return fmt.Errorf("add %s: %w", item.RelPath, err)
		}
	}
	return nil
}

func addToArchive(w *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := w.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
