// Package credstore persists the session token between process lifetimes so
// a signed-in session can be resumed on startup.
package credstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File is a token cache backed by a single mode-0600 file.
type File struct {
	path string
}

// NewFile returns a File storing the token at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load returns the cached token, or "" when none is cached.
func (f *File) Load() (string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// Save writes the token, creating parent directories as needed. An empty
// token is equivalent to Clear.
func (f *File) Save(token string) error {
	if token == "" {
		return f.Clear()
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(token+"\n"), 0o600)
}

// Clear removes the cached token. A missing file is not an error.
func (f *File) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
