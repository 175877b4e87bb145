package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedImage is returned for uploads that are not images.
var ErrUnsupportedImage = errors.New("unsupported image")

// ImageStore persists product images and returns the public URL of each upload.
type ImageStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".avif": "image/avif",
}

// objectName derives a collision-free object name from the client filename and
// rejects anything that is not an image.
func objectName(filename, contentType string) (string, string, error) {
	ext := strings.ToLower(path.Ext(filename))
	expected, ok := allowedExtensions[ext]
	if !ok {
		return "", "", fmt.Errorf("%w type %q", ErrUnsupportedImage, ext)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = expected
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", fmt.Errorf("%w: content type %q", ErrUnsupportedImage, contentType)
	}
	return uuid.NewString() + ext, contentType, nil
}
