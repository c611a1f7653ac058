// internal/pkg/storage/local.go
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// File describes a stored object
type File struct {
	OriginalName string `json:"original_name"`
	Path         string `json:"path"`
	URL          string `json:"url"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
}

// LocalStorage keeps uploads on the local filesystem
type LocalStorage struct {
	root    string
	baseURL string
	maxSize int64
	allowed map[string]bool
}

// NewLocalStorage creates a filesystem store from the storage and upload configuration
func NewLocalStorage(cfg *config.Config) *LocalStorage {
	allowed := make(map[string]bool, len(cfg.Upload.AllowedExtensions))
	for _, ext := range cfg.Upload.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	return &LocalStorage{
		root:    cfg.Storage.LocalPath,
		baseURL: strings.TrimRight(cfg.Storage.CDNBaseURL, "/"),
		maxSize: cfg.Upload.MaxSize,
		allowed: allowed,
	}
}

// Root returns the directory uploads are written to
func (s *LocalStorage) Root() string {
	return s.root
}

// Save writes r under dir with a generated name. size is the declared
// upload size; the copy is capped at the configured maximum either way.
func (s *LocalStorage) Save(ctx context.Context, dir, originalName string, size int64, r io.Reader) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if !s.allowed[ext] {
		return nil, errs.Validation("file type .%s is not allowed", ext)
	}
	if size > s.maxSize {
		return nil, errs.Validation("file size exceeds maximum allowed size of %d bytes", s.maxSize)
	}

	filename := s.generateUniqueFilename(ext)
	relativePath := path.Join(filepath.ToSlash(dir), filename)
	fullPath := filepath.Join(s.root, filepath.FromSlash(relativePath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(r, s.maxSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(fullPath)
		return nil, errs.Validation("file size exceeds maximum allowed size of %d bytes", s.maxSize)
	}

	return &File{
		OriginalName: originalName,
		Path:         relativePath,
		URL:          s.baseURL + "/" + relativePath,
		MimeType:     mime.TypeByExtension("." + ext),
		Size:         written,
	}, nil
}

// Delete removes a previously saved file. Missing files are ignored.
func (s *LocalStorage) Delete(relativePath string) error {
	clean := path.Clean("/" + filepath.ToSlash(relativePath))
	fullPath := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) generateUniqueFilename(ext string) string {
	return fmt.Sprintf("%s_%s.%s", time.Now().UTC().Format("20060102"), uuid.NewString(), ext)
}
