package device

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// probeTimeout bounds each vendor tool invocation.
const probeTimeout = 5 * time.Second

// Prober checks whether one backend is usable on this host.
// The abstraction allows mock implementations during testing.
type Prober interface {
	// Backend returns the backend this prober checks.
	Backend() Backend

	// Probe returns nil if the backend is usable, or an *UnavailableError
	// describing why it is not.
	Probe(ctx context.Context) error
}

// GPUInfo holds the fields parsed from a vendor SMI query.
type GPUInfo struct {
	Name        string
	MemoryTotal int64 // bytes
	MemoryFree  int64 // bytes
}

// minFreeVRAM is the least free VRAM a GPU must report to be selected.
// Generative weights need roughly 4 GiB resident during sampling.
const minFreeVRAM = 4 * 1024 * 1024 * 1024

// CUDAProber detects NVIDIA GPUs through nvidia-smi.
type CUDAProber struct {
	// SMIPath is the nvidia-smi executable; empty means rely on PATH.
	SMIPath string
}

// Backend implements Prober.
func (p *CUDAProber) Backend() Backend { return BackendCUDA }

// Probe implements Prober. It queries nvidia-smi in CSV mode and requires
// at least one GPU with enough free memory.
func (p *CUDAProber) Probe(ctx context.Context) error {
	path := p.SMIPath
	if path == "" {
		path = "nvidia-smi"
	}
	info, err := querySMI(ctx, path,
		"--query-gpu=name,memory.total,memory.free",
		"--format=csv,noheader,nounits")
	if err != nil {
		return &UnavailableError{Backend: BackendCUDA, Reason: "nvidia-smi query failed", Err: err}
	}
	if info.MemoryFree < minFreeVRAM {
		return &UnavailableError{
			Backend: BackendCUDA,
			Reason:  fmt.Sprintf("insufficient free VRAM on %s (%d bytes)", info.Name, info.MemoryFree),
		}
	}
	return nil
}

// ROCmProber detects AMD GPUs through rocm-smi.
type ROCmProber struct {
	// SMIPath is the rocm-smi executable; empty means rely on PATH.
	SMIPath string
}

// Backend implements Prober.
func (p *ROCmProber) Backend() Backend { return BackendROCm }

// Probe implements Prober. rocm-smi exits non-zero when no AMD GPU is
// present, which is the common case and maps to an UnavailableError.
func (p *ROCmProber) Probe(ctx context.Context) error {
	path := p.SMIPath
	if path == "" {
		path = "rocm-smi"
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, path, "--showmeminfo", "vram", "--csv")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &UnavailableError{Backend: BackendROCm, Reason: "rocm-smi query failed", Err: err}
	}
	if !strings.Contains(stdout.String(), "card") {
		return &UnavailableError{Backend: BackendROCm, Reason: "no AMD GPU reported"}
	}
	return nil
}

// CPUProber always succeeds; the CPU is the terminal fallback.
type CPUProber struct{}

// Backend implements Prober.
func (p *CPUProber) Backend() Backend { return BackendCPU }

// Probe implements Prober.
func (p *CPUProber) Probe(ctx context.Context) error { return nil }

// querySMI runs an SMI tool and parses the first CSV record as
// name, memory.total (MiB), memory.free (MiB).
func querySMI(ctx context.Context, path string, args ...string) (GPUInfo, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return GPUInfo{}, fmt.Errorf("%s failed: %w (stderr: %s)", path, err, strings.TrimSpace(stderr.String()))
	}
	return parseSMIOutput(stdout.String())
}

// parseSMIOutput parses the CSV output of a --query-gpu invocation.
// Multi-GPU hosts report one line per device; the first device is used.
func parseSMIOutput(output string) (GPUInfo, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return GPUInfo{}, fmt.Errorf("empty SMI output")
	}

	reader := csv.NewReader(strings.NewReader(output))
	record, err := reader.Read()
	if err != nil {
		return GPUInfo{}, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(record) < 3 {
		return GPUInfo{}, fmt.Errorf("unexpected field count: got %d, expected 3", len(record))
	}

	totalMiB, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return GPUInfo{}, fmt.Errorf("failed to parse memory total: %w", err)
	}
	freeMiB, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return GPUInfo{}, fmt.Errorf("failed to parse memory free: %w", err)
	}

	const mibToBytes = 1024 * 1024
	return GPUInfo{
		Name:        strings.TrimSpace(record[0]),
		MemoryTotal: int64(totalMiB * mibToBytes),
		MemoryFree:  int64(freeMiB * mibToBytes),
	}, nil
}
