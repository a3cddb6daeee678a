package ports

import (
	"context"
	"io"
)

// FileStorage persists uploaded receipts under a generated name.
type FileStorage interface {
	Save(ctx context.Context, name, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, name string) error
}

// FileCleaner removes files that no refund references anymore.
// Enqueue must not block on storage I/O.
type FileCleaner interface {
	Enqueue(filename string)
}

// UploadInput describes a received multipart file.
type UploadInput struct {
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// UploadService validates and stores an uploaded file, returning its stored name.
type UploadService interface {
	Upload(ctx context.Context, in UploadInput) (string, error)
}
