package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"colorizer_backend/batch"
	"colorizer_backend/colorize"
	"colorizer_backend/core"
	"colorizer_backend/db"
	"colorizer_backend/device"
	"colorizer_backend/logging"
	"colorizer_backend/mcruntime"
	"colorizer_backend/shutdown"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// app dispatches CLI commands against the loaded configuration.
type app struct {
	config *core.Config
	logger *logging.Logger
}

func newApp(config *core.Config, logger *logging.Logger) *app {
	return &app{config: config, logger: logger}
}

// Run dispatches a command line and returns the process exit code.
func (a *app) Run(args []string) int {
	if len(args) == 0 {
		a.printUsage()
		return core.ExitCodeError
	}

	switch args[0] {
	case "colorize":
		return a.cmdColorize(args[1:])
	case "batch":
		return a.cmdBatch(args[1:])
	case "weights":
		return a.cmdWeights(args[1:])
	case "history":
		return a.cmdHistory(args[1:])
	case "version":
		fmt.Printf("colorizer %s (built %s, commit %s)\n",
			core.GetVersion(), core.GetBuildTime(), core.GetGitCommit())
		return core.ExitCodeSuccess
	case "help", "-h", "--help":
		a.printUsage()
		return core.ExitCodeSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		a.printUsage()
		return core.ExitCodeError
	}
}

func (a *app) printUsage() {
	fmt.Println("Manga page colorizer")
	fmt.Println()
	fmt.Println("Usage: colorizer <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  colorize <page>       Colorize a single page image")
	fmt.Println("  batch <dir|zip> ...   Colorize every page in directories or archives")
	fmt.Println("  weights ensure [id]   Download model weights (all when no id given)")
	fmt.Println("  weights list          List registered weights and their status")
	fmt.Println("  history [-n N]        Show recent batch jobs")
	fmt.Println("  history prune -days N Remove finished jobs older than N days")
	fmt.Println("  version               Print version information")
	fmt.Println("  help                  Show this help message")
	fmt.Println()
	fmt.Println("Service management: install, uninstall, start, stop, restart, status")
}

// defaultParams builds engine parameters from the configuration defaults.
func (a *app) defaultParams() mcruntime.Params {
	p := mcruntime.DefaultParams()
	p.Engine = mcruntime.EngineTag(a.config.Engine)
	p.MaxSide = a.config.MaxSide
	p.InkThreshold = a.config.InkThreshold
	p.Steps = a.config.Steps
	p.GuidanceScale = a.config.Guidance
	p.Strength = a.config.Strength
	p.ProtectText = a.config.ProtectText
	return p
}

// registerParamFlags binds the shared colorization flags onto a flag set,
// seeded from the configuration defaults.
func (a *app) registerParamFlags(fs *flag.FlagSet, p *mcruntime.Params) {
	fs.StringVar((*string)(&p.Engine), "engine", string(p.Engine), `colorization engine: "fast" or "generative"`)
	fs.StringVar(&p.Prompt, "prompt", p.Prompt, "style prompt for the generative engine")
	fs.StringVar(&p.NegativePrompt, "negative-prompt", p.NegativePrompt, "negative prompt for the generative engine")
	fs.Int64Var(&p.Seed, "seed", p.Seed, "sampling seed, -1 for random")
	fs.IntVar(&p.Steps, "steps", p.Steps, "sampling steps (20-30)")
	fs.Float64Var(&p.Strength, "strength", p.Strength, "denoise strength (0.3-0.5)")
	fs.Float64Var(&p.GuidanceScale, "guidance", p.GuidanceScale, "guidance scale (7-9)")
	fs.IntVar(&p.MaxSide, "max-side", p.MaxSide, "working resolution cap, multiple of 8")
	fs.IntVar(&p.InkThreshold, "ink-threshold", p.InkThreshold, "luminance at or below which ink is preserved")
	fs.BoolVar(&p.ProtectText, "protect-text", p.ProtectText, "keep detected text regions untouched")
}

// pipeline bundles the wired processing components for one command run.
type pipeline struct {
	colorizer *colorize.Colorizer
	manager   *mcruntime.ModelManager
	history   *db.History
	recorder  *db.Recorder
	shutdown  *shutdown.Manager
}

// buildPipeline wires the full processing stack and its shutdown handlers.
// History store failures degrade to running without job history.
func (a *app) buildPipeline() (*pipeline, error) {
	weights, err := newWeightManager(a.config)
	if err != nil {
		return nil, err
	}

	zlog := a.logger.Zap()
	manager := mcruntime.NewModelManager(weights, mcruntime.WithManagerLogger(zlog))
	resolver := device.NewResolver(device.WithLogger(zlog))

	sd := shutdown.NewManager(zlog, shutdown.WithTimeout(30*time.Second))
	sd.Start()

	p := &pipeline{manager: manager, shutdown: sd}

	opts := []colorize.Option{}
	historyPath := filepath.Join(a.config.DataDir, "history.db")
	history, err := db.OpenHistory(db.DefaultHistoryConfig(historyPath))
	if err != nil {
		a.logger.Warn("Job history unavailable, continuing without it", zap.Error(err))
	} else {
		p.history = history
		p.recorder = db.NewRecorder(history.Repo(), zlog)
		p.recorder.Start()
		opts = append(opts, colorize.WithRecorder(p.recorder))

		sd.Register("recorder", 30, func(ctx context.Context) error {
			p.recorder.Stop()
			return nil
		})
		sd.Register("history", 35, func(ctx context.Context) error {
			return history.Close()
		})
	}

	sd.Register("models", 30, func(ctx context.Context) error {
		manager.Close()
		return nil
	})
	sd.Register("cleanup-temp", 45, shutdown.CleanupWorkFiles(zlog, a.config.TempDir))

	p.colorizer = colorize.New(a.config, zlog, resolver, manager, opts...)
	return p, nil
}

// close runs the shutdown sequence for the pipeline.
func (p *pipeline) close(logger *logging.Logger) {
	if err := p.shutdown.Shutdown(); err != nil {
		logger.Warn("Shutdown completed with errors", zap.Error(err))
	}
}

func (a *app) cmdColorize(args []string) int {
	fs := flag.NewFlagSet("colorize", flag.ContinueOnError)
	params := a.defaultParams()
	a.registerParamFlags(fs, &params)
	outPath := fs.String("out", "", "output path (default: <output dir>/<name>_colored.<ext>)")
	comparison := fs.Bool("comparison", a.config.SaveComparison, "also write a side-by-side comparison sheet")
	if err := fs.Parse(args); err != nil {
		return core.ExitCodeError
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: colorizer colorize [flags] <page>")
		return core.ExitCodeError
	}
	input := fs.Arg(0)

	out := *outPath
	if out == "" {
		out = filepath.Join(a.config.OutputDir, batch.OutputName(filepath.Base(input)))
	}

	p, err := a.buildPipeline()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return core.ExitCodeError
	}
	defer p.close(a.logger)

	a.config.SaveComparison = *comparison

	fmt.Printf("Colorizing %s (%s engine)...\n", filepath.Base(input), params.Engine)
	result, err := p.colorizer.ColorizePage(p.shutdown.Context(), input, out, params)
	if err != nil {
		color.Red("Failed: %v", err)
		return core.ExitCodeError
	}

	color.Green("Done in %s", result.Metrics.Total.Round(10*time.Millisecond))
	fmt.Printf("  output:  %s\n", result.OutputPath)
	if result.ComparisonPath != "" {
		fmt.Printf("  compare: %s\n", result.ComparisonPath)
	}
	fmt.Printf("  device:  %s, working %dx%d\n",
		result.Metrics.Device, result.Metrics.WorkingWidth, result.Metrics.WorkingHeight)
	return core.ExitCodeSuccess
}

func (a *app) cmdBatch(args []string) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	params := a.defaultParams()
	a.registerParamFlags(fs, &params)
	if err := fs.Parse(args); err != nil {
		return core.ExitCodeError
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: colorizer batch [flags] <dir|zip|page> ...")
		return core.ExitCodeError
	}

	p, err := a.buildPipeline()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return core.ExitCodeError
	}
	defer p.close(a.logger)

	progress := make(chan batch.Progress, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var bar *progressbar.ProgressBar
		for ev := range progress {
			if bar == nil {
				bar = progressbar.NewOptions(ev.Total,
					progressbar.OptionSetDescription("colorizing"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(30),
				)
			}
			bar.Describe(fmt.Sprintf("colorizing %s", ev.Filename))
			bar.Set(ev.Current)
		}
		if bar != nil {
			bar.Finish()
			fmt.Println()
		}
	}()

	result, err := p.colorizer.ColorizeBatch(p.shutdown.Context(), fs.Args(), params, progress)
	close(progress)
	<-done

	if err != nil {
		color.Red("Batch failed: %v", err)
		return core.ExitCodeError
	}

	switch result.Status {
	case batch.JobCompleted:
		color.Green("Completed: %d/%d pages colorized", result.Succeeded, result.Total)
	case batch.JobCompletedWithErrors:
		color.Yellow("Completed with errors: %d succeeded, %d failed of %d",
			result.Succeeded, result.Failed, result.Total)
	case batch.JobCancelled:
		color.Yellow("Cancelled after %d of %d pages", result.Succeeded+result.Failed, result.Total)
	default:
		color.Red("Job %s: %s", result.JobID, result.Status)
	}
	for _, e := range result.Errors {
		fmt.Printf("  %s: %s\n", e.Item, e.Message)
	}

	switch result.Status {
	case batch.JobCompleted:
		return core.ExitCodeSuccess
	case batch.JobCancelled:
		return core.ExitCodeSIGINT
	default:
		return core.ExitCodeError
	}
}

func (a *app) cmdWeights(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: colorizer weights <ensure|list> [id ...]")
		return core.ExitCodeError
	}

	wm, err := newWeightManager(a.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return core.ExitCodeError
	}

	switch args[0] {
	case "list":
		for _, id := range wm.IDs() {
			path, _ := wm.WeightPath(id)
			status := color.YellowString("[MISS]")
			if _, statErr := os.Stat(path); statErr == nil {
				status = color.GreenString("[ OK ]")
			}
			size := ""
			if spec, ok := wm.Spec(id); ok && spec.SizeBytes > 0 {
				size = " (" + core.FormatBytesCompact(spec.SizeBytes) + ")"
			}
			fmt.Printf("  %s %s%s\n", status, id, size)
		}
		return core.ExitCodeSuccess

	case "ensure":
		ids := args[1:]
		if len(ids) == 0 {
			ids = wm.IDs()
		}
		ctx, cancel := signalContext()
		defer cancel()
		for _, id := range ids {
			if err := a.ensureOneWeight(ctx, wm, id); err != nil {
				color.Red("%s: %v", id, err)
				return core.ExitCodeError
			}
		}
		color.Green("All weights present")
		return core.ExitCodeSuccess

	default:
		fmt.Fprintf(os.Stderr, "Unknown weights subcommand: %s\n", args[0])
		return core.ExitCodeError
	}
}

// ensureOneWeight downloads one weight file with a byte progress bar.
func (a *app) ensureOneWeight(ctx context.Context, wm *core.WeightManager, id string) error {
	var bar *progressbar.ProgressBar
	_, err := wm.EnsureWeights(ctx, id, func(info core.ProgressInfo) {
		if bar == nil && info.Total > 0 {
			bar = progressbar.NewOptions64(info.Total,
				progressbar.OptionSetDescription(id),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(30),
			)
		}
		if bar != nil {
			bar.Set64(info.Downloaded)
		}
	})
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	return err
}

func (a *app) cmdHistory(args []string) int {
	if len(args) > 0 && args[0] == "prune" {
		return a.cmdHistoryPrune(args[1:])
	}

	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", 20, "number of jobs to show")
	if err := fs.Parse(args); err != nil {
		return core.ExitCodeError
	}

	history, err := a.openHistory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return core.ExitCodeError
	}
	defer history.Close()

	jobs, err := history.Repo().ListRecentJobs(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return core.ExitCodeError
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs recorded yet.")
		return core.ExitCodeSuccess
	}

	for _, job := range jobs {
		status := job.Status
		switch status {
		case string(batch.JobCompleted):
			status = color.GreenString(status)
		case string(batch.JobFailed), string(batch.JobCancelled):
			status = color.RedString(status)
		case string(batch.JobCompletedWithErrors):
			status = color.YellowString(status)
		}
		fmt.Printf("%s  %s  %s  %d ok / %d failed  %s\n",
			job.StartedAt.Local().Format("2006-01-02 15:04"),
			job.JobID[:8], status, job.Succeeded, job.Failed, job.Engine)
	}
	return core.ExitCodeSuccess
}

func (a *app) cmdHistoryPrune(args []string) int {
	fs := flag.NewFlagSet("history prune", flag.ContinueOnError)
	days := fs.Int("days", 30, "remove finished jobs older than this many days")
	if err := fs.Parse(args); err != nil {
		return core.ExitCodeError
	}

	history, err := a.openHistory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return core.ExitCodeError
	}
	defer history.Close()

	cutoff := time.Now().AddDate(0, 0, -*days)
	removed, err := history.Repo().PruneOlderThan(context.Background(), cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return core.ExitCodeError
	}
	fmt.Printf("Removed %d jobs older than %d days\n", removed, *days)
	return core.ExitCodeSuccess
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (a *app) openHistory() (*db.History, error) {
	return db.OpenHistory(db.DefaultHistoryConfig(filepath.Join(a.config.DataDir, "history.db")))
}
