package device

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeProber is a Prober with a scripted outcome and call counter.
type fakeProber struct {
	mu      sync.Mutex
	backend Backend
	err     error
	calls   int
}

func (f *fakeProber) Backend() Backend { return f.backend }

func (f *fakeProber) Probe(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeProber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestResolver_PicksFirstAvailable(t *testing.T) {
	cuda := &fakeProber{backend: BackendCUDA}
	r := NewResolver(WithProbers(cuda, &CPUProber{}))

	sel := r.Resolve(context.Background())

	if sel.Backend != BackendCUDA {
		t.Errorf("expected cuda, got %s", sel.Backend)
	}
	if sel.Precision != PrecisionFloat16 {
		t.Errorf("expected float16 on GPU, got %s", sel.Precision)
	}
}

func TestResolver_FallsThroughChain(t *testing.T) {
	cuda := &fakeProber{backend: BackendCUDA, err: &UnavailableError{Backend: BackendCUDA, Reason: "no device"}}
	rocm := &fakeProber{backend: BackendROCm, err: &UnavailableError{Backend: BackendROCm, Reason: "no device"}}
	r := NewResolver(WithProbers(cuda, rocm, &CPUProber{}))

	sel := r.Resolve(context.Background())

	if sel.Backend != BackendCPU {
		t.Errorf("expected cpu fallback, got %s", sel.Backend)
	}
	if sel.Precision != PrecisionFloat32 {
		t.Errorf("expected float32 on cpu, got %s", sel.Precision)
	}
}

func TestResolver_CachesResult(t *testing.T) {
	cuda := &fakeProber{backend: BackendCUDA}
	r := NewResolver(WithProbers(cuda, &CPUProber{}))

	first := r.Resolve(context.Background())
	second := r.Resolve(context.Background())

	if first != second {
		t.Errorf("selections differ: %v vs %v", first, second)
	}
	if cuda.callCount() != 1 {
		t.Errorf("expected 1 probe, got %d", cuda.callCount())
	}
}

func TestResolver_ConcurrentResolveSingleProbe(t *testing.T) {
	cuda := &fakeProber{backend: BackendCUDA}
	r := NewResolver(WithProbers(cuda, &CPUProber{}))

	var wg sync.WaitGroup
	results := make([]Selection, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(context.Background())
		}(i)
	}
	wg.Wait()

	if cuda.callCount() != 1 {
		t.Errorf("expected exactly 1 probe under concurrency, got %d", cuda.callCount())
	}
	for i, sel := range results {
		if sel.Backend != BackendCUDA {
			t.Errorf("result %d: expected cuda, got %s", i, sel.Backend)
		}
	}
}

func TestResolver_EnvOverrideSkipsProbing(t *testing.T) {
	t.Setenv(EnvDeviceOverride, "cpu")

	cuda := &fakeProber{backend: BackendCUDA}
	r := NewResolver(WithProbers(cuda, &CPUProber{}))

	sel := r.Resolve(context.Background())

	if sel.Backend != BackendCPU {
		t.Errorf("expected forced cpu, got %s", sel.Backend)
	}
	if cuda.callCount() != 0 {
		t.Errorf("override should skip probing, probe ran %d times", cuda.callCount())
	}
}

func TestResolver_InvalidOverrideIgnored(t *testing.T) {
	t.Setenv(EnvDeviceOverride, "tpu")

	cuda := &fakeProber{backend: BackendCUDA}
	r := NewResolver(WithProbers(cuda, &CPUProber{}))

	sel := r.Resolve(context.Background())

	if sel.Backend != BackendCUDA {
		t.Errorf("invalid override should fall back to probing, got %s", sel.Backend)
	}
}

func TestParseSMIOutput(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr bool
		free    int64
	}{
		{
			name:   "valid single GPU",
			output: "NVIDIA GeForce RTX 4090, 24564, 23000\n",
			free:   23000 * 1024 * 1024,
		},
		{
			name:   "multi GPU uses first",
			output: "GPU A, 8192, 4096\nGPU B, 24564, 23000\n",
			free:   4096 * 1024 * 1024,
		},
		{
			name:    "empty output",
			output:  "",
			wantErr: true,
		},
		{
			name:    "too few fields",
			output:  "GPU A, 8192",
			wantErr: true,
		},
		{
			name:    "non-numeric memory",
			output:  "GPU A, lots, 4096",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseSMIOutput(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.MemoryFree != tt.free {
				t.Errorf("MemoryFree = %d, want %d", info.MemoryFree, tt.free)
			}
		})
	}
}

func TestUnavailableError_Unwrap(t *testing.T) {
	inner := errors.New("exec: not found")
	err := &UnavailableError{Backend: BackendCUDA, Reason: "probe failed", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find wrapped error")
	}
	if err.Error() == "" {
		t.Error("expected non-empty error string")
	}
}

func TestSelection_String(t *testing.T) {
	sel := Selection{Backend: BackendCUDA, Precision: PrecisionFloat16}
	if got := sel.String(); got != "cuda/float16" {
		t.Errorf("String() = %q", got)
	}
	if !sel.IsGPU() {
		t.Error("cuda selection should report IsGPU")
	}
	cpu := Selection{Backend: BackendCPU, Precision: PrecisionFloat32}
	if cpu.IsGPU() {
		t.Error("cpu selection should not report IsGPU")
	}
}
