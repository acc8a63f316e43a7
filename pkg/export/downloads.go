package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// Downloads saves fetched export files on disk under a base directory,
// standing in for the browser's file-save behaviour.
type Downloads struct {
	baseDir string
}

// NewDownloads ensures the base directory exists and returns a handle.
func NewDownloads(baseDir string) (*Downloads, error) {
	if baseDir == "" {
		baseDir = "./downloads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads directory: %w", err)
	}
	return &Downloads{baseDir: baseDir}, nil
}

// Save writes the given bytes under the base dir and returns the full path.
func (d *Downloads) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(d.baseDir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write download file: %w", err)
	}
	return path, nil
}
