package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore writes blobs under a root directory and serves them from a
// public base URL.
type FilesystemStore struct {
	root    string
	baseURL string
}

var _ Store = (*FilesystemStore)(nil)

// NewFilesystemStore creates a filesystem blob store rooted at root. URLs
// are formed by joining baseURL with the blob path.
func NewFilesystemStore(root, baseURL string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	return &FilesystemStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Put stores data under path and returns its public URL.
func (s *FilesystemStore) Put(_ context.Context, path string, _ string, data []byte) (string, error) {
	cleaned, err := s.sanitize(path)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating blob dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}

	return s.baseURL + "/" + cleaned, nil
}

// sanitize rejects paths that would escape the root.
func (s *FilesystemStore) sanitize(path string) (string, error) {
	cleaned := filepath.ToSlash(filepath.Clean("/" + path))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return cleaned, nil
}
