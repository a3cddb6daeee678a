package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/expensehub/refund-api/internal/core/domain"
)

func multipartContext(t *testing.T, field, filename, contentType string, content []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestUploadHandler_Create_Success(t *testing.T) {
	stub := &stubUploadService{}
	c, rec := multipartContext(t, "file", "receipt.png", "image/png", []byte("png-bytes"))

	if err := NewUploadHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.got.ContentType != "image/png" || stub.got.Size != int64(len("png-bytes")) {
		t.Fatalf("unexpected upload input: %+v", stub.got)
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Filename != "stored-receipt.png" {
		t.Fatalf("unexpected filename %q", resp.Filename)
	}
}

func TestUploadHandler_Create_MissingFile(t *testing.T) {
	c, _ := multipartContext(t, "attachment", "receipt.png", "image/png", []byte("x"))

	var ve *domain.ValidationError
	if err := NewUploadHandler(&stubUploadService{}).Create(c); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Fields["file"] == "" {
		t.Fatalf("expected error on file, got %v", ve.Fields)
	}
}

func TestUploadHandler_Create_Rejected(t *testing.T) {
	stub := &stubUploadService{err: fmt.Errorf("%w: content type application/pdf", domain.ErrUnsupportedFile)}
	c, _ := multipartContext(t, "file", "doc.pdf", "application/pdf", []byte("%PDF"))

	if err := NewUploadHandler(stub).Create(c); !errors.Is(err, domain.ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
}
