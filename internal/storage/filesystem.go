package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem writes exported visuals to disk.
// Files are stored at: {baseDir}/{TICKER}/{name}.png
type FileSystem struct {
	baseDir string
}

// NewFileSystem creates a new FileSystem storage, ensuring the base directory exists.
func NewFileSystem(baseDir string) (*FileSystem, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	return &FileSystem{baseDir: baseDir}, nil
}

// VisualPath returns the filesystem path for a named visual of a ticker.
func (fs *FileSystem) VisualPath(ticker, name string) string {
	return filepath.Join(fs.TickerDir(ticker), name+".png")
}

// TickerDir returns the directory holding a ticker's visuals.
func (fs *FileSystem) TickerDir(ticker string) string {
	return filepath.Join(fs.baseDir, strings.ToUpper(ticker))
}

// Write saves a PNG, creating the ticker directory if needed, and returns its path.
func (fs *FileSystem) Write(ticker, name string, data []byte) (string, error) {
	if err := os.MkdirAll(fs.TickerDir(ticker), 0755); err != nil {
		return "", fmt.Errorf("creating ticker directory: %w", err)
	}

	path := fs.VisualPath(ticker, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing visual: %w", err)
	}
	return path, nil
}

// Exists checks if a visual exists on disk.
func (fs *FileSystem) Exists(ticker, name string) bool {
	_, err := os.Stat(fs.VisualPath(ticker, name))
	return err == nil
}

// DeleteTicker removes every stored visual of a ticker.
func (fs *FileSystem) DeleteTicker(ticker string) error {
	return os.RemoveAll(fs.TickerDir(ticker))
}
