package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// URLPrefix is the path under which locally stored images are served.
const URLPrefix = "/uploads/"

type localStore struct {
	dir     string
	baseURL string
	logger  zerolog.Logger
}

// NewLocalStore creates an image store writing into dir. Returned URLs are
// baseURL + URLPrefix + name, or root-relative when baseURL is empty.
func NewLocalStore(dir, baseURL string, logger zerolog.Logger) (ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}
	return &localStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "local-image-store").Logger(),
	}, nil
}

func (s *localStore) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	name, _, err := objectName(filename, contentType)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, name)
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(target)
		s.logger.Error().Err(err).Str("file", target).Msg("failed to write image")
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return s.baseURL + URLPrefix + name, nil
}
