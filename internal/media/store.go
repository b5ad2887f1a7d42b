// Package media persists generated media payloads to durable storage and
// hands back public references to them.
package media

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dotdapp/dotd-api/internal/config"
	"github.com/dotdapp/dotd-api/internal/generation"
)

// defaultExtension is used when the MIME type is absent or malformed.
const defaultExtension = ".png"

// extensionsByMIME maps the MIME types the generation service is known to
// emit onto conventional file extensions. Unlisted types fall back to the
// MIME subtype.
var extensionsByMIME = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
}

// FileStore writes media files under a single upload directory and returns
// URLs rooted at the configured public prefix. Filenames are freshly
// generated UUIDs, collision-resistant by construction, so concurrent
// writers need no coordination.
type FileStore struct {
	uploadDir    string
	publicPrefix string
	logger       *slog.Logger
}

// NewFileStore creates a FileStore from configuration.
func NewFileStore(cfg config.MediaConfig, logger *slog.Logger) (*FileStore, error) {
	if cfg.UploadDir == "" {
		return nil, errors.New("upload directory cannot be empty")
	}
	if cfg.PublicPrefix == "" {
		return nil, errors.New("public prefix cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FileStore{
		uploadDir:    cfg.UploadDir,
		publicPrefix: strings.TrimSuffix(cfg.PublicPrefix, "/"),
		logger:       logger,
	}, nil
}

// Save writes the decoded payload under a freshly generated name and returns
// the public reference for it. Any I/O failure is a StorageWriteError: a
// completed task must always point at real, persisted media.
func (s *FileStore) Save(ctx context.Context, data []byte, mimeType string) (string, error) {
	filename := uuid.NewString() + ExtensionForMIME(mimeType)
	diskPath := filepath.Join(s.uploadDir, filename)

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", &generation.StorageWriteError{Path: s.uploadDir, Err: err}
	}

	if err := os.WriteFile(diskPath, data, 0o644); err != nil {
		return "", &generation.StorageWriteError{Path: diskPath, Err: err}
	}

	s.logger.DebugContext(ctx, "saved generated media",
		"path", diskPath,
		"bytes", len(data),
		"mime_type", mimeType)

	return s.publicPrefix + "/" + filename, nil
}

// Remove deletes a previously saved media file given its public URL.
// URLs outside the store's public prefix are ignored: externally hosted
// media is not ours to delete.
func (s *FileStore) Remove(ctx context.Context, publicURL string) error {
	if !strings.HasPrefix(publicURL, s.publicPrefix+"/") {
		return nil
	}

	filename := path.Base(publicURL)
	diskPath := filepath.Join(s.uploadDir, filename)

	if err := os.Remove(diskPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	s.logger.DebugContext(ctx, "removed media file", "path", diskPath)
	return nil
}

// ExtensionForMIME derives a file extension from a MIME type. Known types
// use their conventional extension, other well-formed types fall back to
// "." plus the subtype, and absent or malformed types default to ".png".
func ExtensionForMIME(mimeType string) string {
	if ext, ok := extensionsByMIME[mimeType]; ok {
		return ext
	}

	slash := strings.Index(mimeType, "/")
	if slash <= 0 || slash == len(mimeType)-1 {
		return defaultExtension
	}

	return "." + mimeType[slash+1:]
}
