package colorize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"colorizer_backend/batch"
	"colorizer_backend/db"
	"colorizer_backend/mcruntime"
)

// jobRunner binds one batch job to a fixed parameter set. It is handed to the
// orchestrator as the page processor and keeps the required models resident
// for the whole job.
type jobRunner struct {
	c      *Colorizer
	params mcruntime.Params

	engineHandle  *mcruntime.Handle
	lineArtHandle *mcruntime.Handle
}

// PrepareJob acquires the engine and line art models for the job. An engine
// model failure here fails the whole job before any page is touched.
func (r *jobRunner) PrepareJob(ctx context.Context) (func(), error) {
	handle, err := r.c.manager.Acquire(ctx, modelIDFor(r.params.Engine))
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", modelIDFor(r.params.Engine), err)
	}
	r.engineHandle = handle
	r.lineArtHandle = r.c.acquireLineArt(ctx)

	return func() {
		r.c.manager.Release(r.engineHandle)
		r.c.manager.Release(r.lineArtHandle)
		r.engineHandle = nil
		r.lineArtHandle = nil
	}, nil
}

// ProcessPage colorizes one page of the job.
func (r *jobRunner) ProcessPage(ctx context.Context, inputPath, outputPath string) error {
	_, err := r.c.colorizeOne(ctx, inputPath, outputPath, r.params, r.engineHandle, r.lineArtHandle)
	return err
}

// BatchResult summarizes a finished batch job.
type BatchResult struct {
	JobID     string
	Status    batch.JobStatus
	Total     int
	Succeeded int
	Failed    int
	Errors    []batch.ItemError
}

// ColorizeBatch expands the inputs into a job and runs every page through the
// pipeline sequentially. Per-page failures are recorded and the job carries
// on; the returned error covers job-level faults only. Progress events are
// sent to progress when it is non-nil; a slow consumer never stalls the job.
func (c *Colorizer) ColorizeBatch(ctx context.Context, inputs []string, params mcruntime.Params, progress chan<- batch.Progress) (*BatchResult, error) {
	if err := mcruntime.ValidateParams(params); err != nil {
		return nil, err
	}

	job, err := batch.NewJob(inputs)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	started := time.Now().UTC()
	sel := c.resolver.Resolve(ctx)
	c.recordJobStart(jobID, inputs, params, string(sel.Backend), started)

	outputDir := "."
	if c.cfg != nil && c.cfg.OutputDir != "" {
		outputDir = c.cfg.OutputDir
	}

	runner := &jobRunner{c: c, params: params}
	orch := batch.NewOrchestrator(runner, outputDir,
		batch.WithZipOutput(true),
		batch.WithOrchestratorLogger(c.logger))

	runErr := orch.Run(ctx, job, progress)
	snap := job.Snapshot()
	result := summarize(jobID, snap)

	c.recordJobEnd(jobID, snap, result, started)

	c.logger.Info("batch finished",
		zap.String("job_id", jobID),
		zap.String("status", string(result.Status)),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))

	return result, runErr
}

// summarize folds a job snapshot into a BatchResult.
func summarize(jobID string, snap batch.Snapshot) *BatchResult {
	result := &BatchResult{
		JobID:  jobID,
		Status: snap.Status,
		Total:  len(snap.Items),
		Errors: snap.Errors,
	}
	for _, item := range snap.Items {
		switch item.Status {
		case batch.ItemSucceeded:
			result.Succeeded++
		case batch.ItemFailed:
			result.Failed++
		}
	}
	return result
}

// recordJobStart writes the job header to the history recorder, if attached.
func (c *Colorizer) recordJobStart(jobID string, inputs []string, params mcruntime.Params, deviceName string, started time.Time) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordJobStart(db.JobRecord{
		JobID:     jobID,
		Inputs:    strings.Join(inputs, ","),
		Engine:    string(params.Engine),
		Device:    deviceName,
		Status:    string(batch.JobProcessing),
		StartedAt: started,
	})
}

// recordJobEnd writes the per-item rows and the job footer, if attached.
func (c *Colorizer) recordJobEnd(jobID string, snap batch.Snapshot, result *BatchResult, started time.Time) {
	if c.recorder == nil {
		return
	}
	created := time.Now().UTC()
	for _, item := range snap.Items {
		record := db.ItemRecord{
			JobID:     jobID,
			RelPath:   item.RelPath,
			Status:    string(item.Status),
			CreatedAt: created,
		}
		if item.Status == batch.ItemSucceeded {
			record.OutPath = item.OutPath
		}
		if item.Err != "" {
			record.Error = item.Err
		}
		c.recorder.RecordItem(record)
	}
	c.recorder.RecordJobEnd(jobID, string(snap.Status), snap.Message, result.Succeeded, result.Failed)
}
