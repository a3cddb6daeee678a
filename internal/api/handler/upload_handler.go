package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expensehub/refund-api/internal/api/metrics"
	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/ports"
)

const uploadField = "file"

type UploadHandler struct {
	service ports.UploadService
}

func NewUploadHandler(service ports.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// Create handles POST /uploads.
//
// @Summary      Upload a receipt
// @Description  Accepts jpeg or png images up to the configured size. The returned filename goes into a refund.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Receipt image"
// @Success      201   {object}  uploadResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /uploads [post]
func (h *UploadHandler) Create(c echo.Context) error {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return domain.NewValidationError(uploadField, "file is required")
	}

	f, err := fh.Open()
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return err
	}
	defer f.Close()

	name, err := h.service.Upload(c.Request().Context(), ports.UploadInput{
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get(echo.HeaderContentType),
		Size:         fh.Size,
		Body:         f,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFile) {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.UploadsTotal.WithLabelValues("stored").Inc()
	return c.JSON(http.StatusCreated, uploadResponse{Filename: name})
}
