package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/ports"
)

const defaultMaxUploadBytes = 3 << 20

var acceptedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
}

type UploadService struct {
	storage  ports.FileStorage
	maxBytes int64
	logger   zerolog.Logger
}

func NewUploadService(storage ports.FileStorage, maxBytes int64, logger zerolog.Logger) *UploadService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &UploadService{storage: storage, maxBytes: maxBytes, logger: logger}
}

// Upload validates the file and stores it as <uuid>-<sanitized name>.
func (s *UploadService) Upload(ctx context.Context, in ports.UploadInput) (string, error) {
	if _, ok := acceptedContentTypes[strings.ToLower(in.ContentType)]; !ok {
		return "", fmt.Errorf("%w: content type %q not accepted", domain.ErrUnsupportedFile, in.ContentType)
	}
	if in.Size <= 0 {
		return "", fmt.Errorf("%w: empty file", domain.ErrUnsupportedFile)
	}
	if in.Size > s.maxBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", domain.ErrUnsupportedFile, s.maxBytes)
	}

	name := uuid.NewString() + "-" + sanitizeFilename(in.OriginalName)
	if err := s.storage.Save(ctx, name, in.ContentType, in.Body, in.Size); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	s.logger.Info().Str("filename", name).Int64("size", in.Size).Msg("file uploaded")
	return name, nil
}

// sanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with an underscore.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
