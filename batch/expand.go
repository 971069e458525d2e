package batch

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"colorizer_backend/imageproc"
)

// Sentinel errors for job expansion.
var (
	ErrNoInputs     = errors.New("batch: no inputs given")
	ErrNoPagesFound = errors.New("batch: no supported page images found")
	ErrBadArchive   = errors.New("batch: cannot read archive")
)

// NewJob expands the given inputs into a job. Each input may be a zip
// archive, a directory, or a single image file. Items are ordered by
// relative path so repeated runs process pages identically.
//
// Archive inputs are extracted into a temp dir that lives until the job
// finishes.
func NewJob(inputs []string) (*Job, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	job := &Job{
		ID:     uuid.New().String(),
		Inputs: append([]string(nil), inputs...),
		status: JobQueued,
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			job.cleanupTemp()
			return nil, fmt.Errorf("stat input %s: %w", input, err)
		}

		switch {
		case info.IsDir():
			items, err := expandDir(input)
			if err != nil {
				job.cleanupTemp()
				return nil, err
			}
			job.items = append(job.items, items...)

		case strings.EqualFold(filepath.Ext(input), ".zip"):
			tempDir, items, err := expandArchive(input)
			if err != nil {
				job.cleanupTemp()
				return nil, err
			}
			job.tempDirs = append(job.tempDirs, tempDir)
			job.items = append(job.items, items...)
			if job.ArchiveStem == "" {
				job.ArchiveStem = stem(filepath.Base(input))
			}

		default:
			if !imageproc.IsSupportedInput(input) {
				job.cleanupTemp()
				return nil, fmt.Errorf("%w: %s", ErrNoPagesFound, input)
			}
			job.items = append(job.items, Item{
				Source:  input,
				RelPath: filepath.Base(input),
				Status:  ItemQueued,
			})
		}
	}

	if len(job.items) == 0 {
		job.cleanupTemp()
		return nil, ErrNoPagesFound
	}

	sort.Slice(job.items, func(i, k int) bool {
		return job.items[i].RelPath < job.items[k].RelPath
	})
	return job, nil
}

// expandDir walks a directory collecting supported images with their
// relative paths.
func expandDir(root string) ([]Item, error) {
	var items []Item
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !imageproc.IsSupportedInput(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		items = append(items, Item{Source: path, RelPath: rel, Status: ItemQueued})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return items, nil
}

// expandArchive extracts a zip's supported images into a temp dir.
func expandArchive(path string) (string, []Item, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %v", ErrBadArchive, path, err)
	}
	defer reader.Close()

	tempDir, err := os.MkdirTemp("", "colorizer-batch-")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}

	var items []Item
	for _, f := range reader.File {
		if f.FileInfo().IsDir() || !imageproc.IsSupportedInput(f.Name) {
			continue
		}

		rel := filepath.FromSlash(f.Name)
		dest := filepath.Join(tempDir, rel)
		// Reject entries that escape the extraction root.
		if !strings.HasPrefix(dest, filepath.Clean(tempDir)+string(os.PathSeparator)) {
			continue
		}

		if err := extractFile(f, dest); err != nil {
			os.RemoveAll(tempDir)
			return "", nil, fmt.Errorf("%w: extract %s: %v", ErrBadArchive, f.Name, err)
		}
		items = append(items, Item{Source: dest, RelPath: rel, Status: ItemQueued})
	}

	return tempDir, items, nil
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// cleanupTemp removes all archive extraction dirs.
func (j *Job) cleanupTemp() {
	for _, dir := range j.tempDirs {
		os.RemoveAll(dir)
	}
	j.tempDirs = nil
}

// OutputName derives the output file name for a page: the stem gains a
// "_colored" suffix and the extension is preserved.
func OutputName(relPath string) string {
	dir := filepath.Dir(relPath)
	base := filepath.Base(relPath)
	ext := filepath.Ext(base)
	name := stem(base) + "_colored" + ext
	if dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}

// stem strips the extension from a file name.
func stem(base string) string {
	return strings.TrimSuffix(base, filepath.Ext(base))
}
