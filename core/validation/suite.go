// Package validation provides startup validation for the colorizer backend:
// directory and disk space checks, weight presence, and device probing are
// composed into a suite that renders colored progress output.
package validation

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// ValidationStep represents a single validation step with its status.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepPassed
	StepFailed
	StepWarning
	StepSkipped
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SuiteResult represents the complete result of validation suite execution.
type SuiteResult struct {
	Steps       []ValidationStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// Check is one named validation to run at startup. Optional checks render
// failures as warnings and do not fail the suite.
type Check struct {
	Name     string
	Optional bool
	Run      func() error
}

// Suite runs an ordered list of startup checks with colored progress output.
// This is an organism composing the disk space and file molecules in this
// package with caller-supplied checks (weight presence, device probe).
type Suite struct {
	output       io.Writer
	checks       []Check
	showProgress bool
	failFast     bool
}

// NewSuite creates an empty validation suite writing to stdout.
func NewSuite() *Suite {
	return &Suite{
		output:       os.Stdout,
		showProgress: true,
		failFast:     false,
	}
}

// WithOutput sets the output writer for progress messages.
func (s *Suite) WithOutput(w io.Writer) *Suite {
	s.output = w
	return s
}

// WithShowProgress enables or disables progress output.
func (s *Suite) WithShowProgress(show bool) *Suite {
	s.showProgress = show
	return s
}

// WithFailFast stops the suite at the first failed required check.
func (s *Suite) WithFailFast(failFast bool) *Suite {
	s.failFast = failFast
	return s
}

// Add appends a required check to the suite.
func (s *Suite) Add(name string, run func() error) *Suite {
	s.checks = append(s.checks, Check{Name: name, Run: run})
	return s
}

// AddOptional appends an optional check; its failure is reported as a warning.
func (s *Suite) AddOptional(name string, run func() error) *Suite {
	s.checks = append(s.checks, Check{Name: name, Optional: true, Run: run})
	return s
}

// Run executes all checks in order and returns the aggregated result.
func (s *Suite) Run() SuiteResult {
	start := time.Now()
	result := SuiteResult{
		TotalSteps: len(s.checks),
		Success:    true,
	}

	skipRemaining := false
	for _, check := range s.checks {
		step := ValidationStep{Name: check.Name, Status: StepRunning}

		if skipRemaining {
			step.Status = StepSkipped
			result.Steps = append(result.Steps, step)
			s.printStep(step)
			continue
		}

		stepStart := time.Now()
		err := check.Run()
		step.Latency = time.Since(stepStart)

		switch {
		case err == nil:
			step.Status = StepPassed
			result.PassedSteps++
		case check.Optional:
			step.Status = StepWarning
			step.Error = err
			step.Message = err.Error()
			result.Warnings++
		default:
			step.Status = StepFailed
			step.Error = err
			step.Message = err.Error()
			result.FailedSteps++
			result.Success = false
			if s.failFast {
				skipRemaining = true
			}
		}

		result.Steps = append(result.Steps, step)
		s.printStep(step)
	}

	result.Duration = time.Since(start)
	s.printSummary(result)
	return result
}

func (s *Suite) printStep(step ValidationStep) {
	if !s.showProgress {
		return
	}
	switch step.Status {
	case StepPassed:
		fmt.Fprintf(s.output, "  %s %s (%s)\n", color.GreenString("[ OK ]"), step.Name, step.Latency.Round(time.Millisecond))
	case StepFailed:
		fmt.Fprintf(s.output, "  %s %s: %s\n", color.RedString("[FAIL]"), step.Name, step.Message)
	case StepWarning:
		fmt.Fprintf(s.output, "  %s %s: %s\n", color.YellowString("[WARN]"), step.Name, step.Message)
	case StepSkipped:
		fmt.Fprintf(s.output, "  %s %s\n", color.HiBlackString("[SKIP]"), step.Name)
	}
}

func (s *Suite) printSummary(result SuiteResult) {
	if !s.showProgress {
		return
	}
	if result.Success {
		fmt.Fprintf(s.output, "%s %d/%d checks passed",
			color.GreenString("Startup validation passed:"), result.PassedSteps, result.TotalSteps)
	} else {
		fmt.Fprintf(s.output, "%s %d of %d checks failed",
			color.RedString("Startup validation failed:"), result.FailedSteps, result.TotalSteps)
	}
	if result.Warnings > 0 {
		fmt.Fprintf(s.output, ", %d warning(s)", result.Warnings)
	}
	fmt.Fprintf(s.output, " in %s\n", result.Duration.Round(time.Millisecond))
}
