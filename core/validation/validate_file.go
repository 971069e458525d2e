package validation

import (
	"fmt"
	"os"
)

// FileExistsError reports a missing or unusable file with a message ready
// for the validation summary.
type FileExistsError struct {
	Path    string
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// CheckFileExists verifies that a regular file exists at path. Used for
// weight files and the model registry. Returns nil on success, otherwise
// a *FileExistsError describing what is wrong.
func CheckFileExists(path string) error {
	if path == "" {
		return &FileExistsError{
			Path:    path,
			Message: "file path cannot be empty",
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileExistsError{
				Path:    path,
				Message: fmt.Sprintf("file not found: %s", path),
			}
		}
		return &FileExistsError{
			Path:    path,
			Message: fmt.Sprintf("error checking file %s: %v", path, err),
		}
	}

	if info.IsDir() {
		return &FileExistsError{
			Path:    path,
			Message: fmt.Sprintf("path is a directory, not a file: %s", path),
		}
	}

	return nil
}

// CheckEnvFileExists looks for the .env file that carries COLORIZER_*
// overrides. Its absence is only a warning at startup.
func CheckEnvFileExists() error {
	return CheckFileExists(".env")
}
