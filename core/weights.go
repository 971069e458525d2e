package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// WeightSpec describes one downloadable set of model weights.
// This is a data structure that defines weight properties without behavior.
type WeightSpec struct {
	// ID is the model id used by the runtime (e.g., "colorizer-generative")
	ID string `yaml:"id"`
	// URL is the download URL for the weight file
	URL string `yaml:"url"`
	// Filename is the local filename within the models directory
	Filename string `yaml:"filename"`
	// SHA256 is the expected checksum for verification (optional)
	SHA256 string `yaml:"sha256"`
	// SizeBytes is the expected file size (informational)
	SizeBytes int64 `yaml:"size_bytes"`
}

// Built-in weight registry. A models.yaml file replaces this list entirely.
var defaultWeights = []WeightSpec{
	{
		ID:        "lineart-extractor",
		URL:       "https://huggingface.co/lllyasviel/Annotators/resolve/main/netG.pth",
		Filename:  "lineart-extractor.pth",
		SizeBytes: 217 * BytesPerMB,
	},
	{
		ID:        "colorizer-generative",
		URL:       "https://huggingface.co/runwayml/stable-diffusion-v1-5/resolve/main/v1-5-pruned-emaonly.safetensors",
		Filename:  "colorizer-generative.safetensors",
		SizeBytes: 4 * BytesPerGB,
	},
	{
		ID:        "colorizer-generative-control",
		URL:       "https://huggingface.co/lllyasviel/control_v11p_sd15s2_lineart_anime/resolve/main/diffusion_pytorch_model.safetensors",
		Filename:  "colorizer-generative-control.safetensors",
		SizeBytes: 1445 * BytesPerMB,
	},
	{
		ID:        "colorizer-fast",
		URL:       "https://huggingface.co/qweasdd/manga-colorization-v2/resolve/main/generator.zip",
		Filename:  "colorizer-fast.zip",
		SizeBytes: 500 * BytesPerMB,
	},
}

// LoadWeightRegistry reads a weight registry from a YAML file.
// The file holds a list of WeightSpec entries under a top-level "models" key.
func LoadWeightRegistry(path string) ([]WeightSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry %q: %w", path, err)
	}

	var doc struct {
		Models []WeightSpec `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry %q: %w", path, err)
	}
	if len(doc.Models) == 0 {
		return nil, fmt.Errorf("registry %q lists no models", path)
	}
	for _, spec := range doc.Models {
		if spec.ID == "" || spec.URL == "" || spec.Filename == "" {
			return nil, fmt.Errorf("registry %q: entries need id, url, and filename", path)
		}
	}
	return doc.Models, nil
}

// WeightManager manages model weight availability and downloading.
// This is an organism that composes the download molecule and checksum atoms
// to provide weight lifecycle management.
type WeightManager struct {
	// modelsDir is the directory where weight files are stored
	modelsDir string
	// httpClient is the HTTP client for downloads
	httpClient *http.Client
	// weights holds the registered weight specs keyed by id
	weights map[string]WeightSpec
	// maxRetries is the number of download retry attempts
	maxRetries int
	// baseRetryDelay is the initial delay between retries (doubles each attempt)
	baseRetryDelay time.Duration
}

// WeightManagerOption is a functional option for configuring WeightManager.
type WeightManagerOption func(*WeightManager)

// WithMaxRetries sets the maximum number of download retry attempts.
func WithMaxRetries(n int) WeightManagerOption {
	return func(wm *WeightManager) {
		if n > 0 {
			wm.maxRetries = n
		}
	}
}

// WithBaseRetryDelay sets the base delay between retry attempts.
func WithBaseRetryDelay(d time.Duration) WeightManagerOption {
	return func(wm *WeightManager) {
		if d > 0 {
			wm.baseRetryDelay = d
		}
	}
}

// WithWeights replaces the registered weight specs.
func WithWeights(specs []WeightSpec) WeightManagerOption {
	return func(wm *WeightManager) {
		wm.weights = make(map[string]WeightSpec, len(specs))
		for _, spec := range specs {
			wm.weights[spec.ID] = spec
		}
	}
}

// NewWeightManager creates a WeightManager storing weights under modelsDir.
// If httpClient is nil a default client is created. The built-in registry is
// used unless WithWeights overrides it.
func NewWeightManager(modelsDir string, httpClient *http.Client, opts ...WeightManagerOption) *WeightManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 0} // downloads are bounded by context
	}

	wm := &WeightManager{
		modelsDir:      modelsDir,
		httpClient:     httpClient,
		weights:        make(map[string]WeightSpec, len(defaultWeights)),
		maxRetries:     DefaultMaxRetries,
		baseRetryDelay: 2 * time.Second,
	}
	for _, spec := range defaultWeights {
		wm.weights[spec.ID] = spec
	}
	for _, opt := range opts {
		opt(wm)
	}
	return wm
}

// WeightPath returns the local path for a registered weight id.
// The file may or may not exist; use EnsureWeights to download it.
func (wm *WeightManager) WeightPath(id string) (string, error) {
	spec, ok := wm.weights[id]
	if !ok {
		return "", ErrUnknownModel(id, wm.registeredIDs())
	}
	return filepath.Join(wm.modelsDir, spec.Filename), nil
}

// IDs returns the registered weight ids in sorted order.
func (wm *WeightManager) IDs() []string {
	return wm.registeredIDs()
}

// Spec returns the registered weight spec for id.
func (wm *WeightManager) Spec(id string) (WeightSpec, bool) {
	spec, ok := wm.weights[id]
	return spec, ok
}

// EnsureWeights makes sure the weight file for id is present and valid,
// downloading it if needed. onProgress may be nil.
//
// Verification: if the spec carries a SHA256, an existing file is checksummed
// before being accepted; without a checksum, presence is enough (matching the
// one-time-download behavior of the upstream weight hosts).
func (wm *WeightManager) EnsureWeights(ctx context.Context, id string, onProgress func(ProgressInfo)) (string, error) {
	spec, ok := wm.weights[id]
	if !ok {
		return "", ErrUnknownModel(id, wm.registeredIDs())
	}

	destPath := filepath.Join(wm.modelsDir, spec.Filename)

	exists, err := wm.checkWeightExists(destPath, spec.SHA256)
	if err != nil {
		return "", err
	}
	if exists {
		return destPath, nil
	}

	if err := os.MkdirAll(wm.modelsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	if err := wm.downloadWeights(ctx, spec, destPath, onProgress); err != nil {
		return "", err
	}
	return destPath, nil
}

// checkWeightExists reports whether a valid weight file is already on disk.
// A checksum mismatch removes the file so a fresh download can follow.
func (wm *WeightManager) checkWeightExists(path string, expectedSHA256 string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat weight file %q: %w", path, err)
	}
	if info.Size() == 0 {
		_ = os.Remove(path)
		return false, nil
	}

	if expectedSHA256 != "" {
		valid, err := VerifyChecksum(path, expectedSHA256)
		if err != nil {
			return false, fmt.Errorf("failed to verify weight file %q: %w", path, err)
		}
		if !valid {
			// Corrupted or truncated download; discard and re-fetch
			_ = os.Remove(path)
			return false, nil
		}
	}
	return true, nil
}

// downloadWeights downloads a weight file with retry and exponential backoff.
func (wm *WeightManager) downloadWeights(ctx context.Context, spec WeightSpec, destPath string, onProgress func(ProgressInfo)) error {
	var lastErr error

	for attempt := 1; attempt <= wm.maxRetries; attempt++ {
		if attempt > 1 {
			delay := wm.baseRetryDelay << (attempt - 2)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &WeightDownloadError{ModelID: spec.ID, Attempts: attempt - 1, Err: ctx.Err()}
			}
		}

		_, err := DownloadWithProgress(ctx, DownloadOptions{
			URL:            spec.URL,
			DestPath:       destPath,
			ExpectedSHA256: spec.SHA256,
			HTTPClient:     wm.httpClient,
			OnProgress:     onProgress,
			Resume:         true,
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if !wm.isRetryableError(err) {
			break
		}
	}

	return &WeightDownloadError{ModelID: spec.ID, Attempts: wm.maxRetries, Err: lastErr}
}

// isRetryableError reports whether a download error is worth retrying.
// Network hiccups are retryable; context cancellation and checksum
// mismatches are not.
func (wm *WeightManager) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// Interrupted transfers surface as generic errors from io.Copy
	return true
}

func (wm *WeightManager) registeredIDs() []string {
	ids := make([]string, 0, len(wm.weights))
	for id := range wm.weights {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WeightDownloadError reports a failed weight download after retries.
type WeightDownloadError struct {
	ModelID  string
	Attempts int
	Err      error
}

func (e *WeightDownloadError) Error() string {
	return fmt.Sprintf("failed to download weights for %q after %d attempt(s): %v", e.ModelID, e.Attempts, e.Err)
}

func (e *WeightDownloadError) Unwrap() error {
	return e.Err
}
