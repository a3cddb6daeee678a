package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expensehub/refund-api/internal/api/metrics"
	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
	"github.com/expensehub/refund-api/internal/core/ports"
)

const headerIdempotencyKey = "Idempotency-Key"

// RefundHandler handles HTTP requests for refund operations.
type RefundHandler struct {
	service ports.RefundService
}

func NewRefundHandler(service ports.RefundService) *RefundHandler {
	return &RefundHandler{service: service}
}

// Create handles POST /refunds. The refund is owned by the caller.
//
// @Summary      Create a refund
// @Tags         refunds
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string               false  "Repeat-safe key; a replay returns the original refund with 200"
// @Param        body             body      createRefundRequest  true   "Refund details"
// @Success      201              {object}  refundResponse
// @Success      200              {object}  refundResponse
// @Failure      400              {object}  map[string]any
// @Failure      401              {object}  map[string]string
// @Failure      403              {object}  map[string]string
// @Failure      500              {object}  map[string]string
// @Router       /refunds [post]
func (h *RefundHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req createRefundRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Create(c.Request().Context(), a, ports.CreateRefundInput{
		Name:           req.Name,
		Amount:         req.Amount,
		Category:       domain.Category(req.Category),
		Filename:       req.Filename,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return err
	}

	if res.Replayed {
		return c.JSON(http.StatusOK, toRefundResponse(res.Refund))
	}
	metrics.RefundsCreatedTotal.WithLabelValues(string(res.Refund.Category)).Inc()
	c.Response().Header().Set(echo.HeaderLocation, "/refunds/"+res.Refund.ID)
	return c.JSON(http.StatusCreated, toRefundResponse(res.Refund))
}

// List handles GET /refunds. Managers see every refund, employees their own.
//
// @Summary      List refunds
// @Tags         refunds
// @Produce      json
// @Security     BearerAuth
// @Param        name     query     string  false  "Case-insensitive refund name filter"
// @Param        page     query     int     false  "Page number"      default(1)
// @Param        perPage  query     int     false  "Items per page"   default(10)
// @Success      200      {object}  listResponse[refundResponse]
// @Failure      400      {object}  map[string]any
// @Failure      401      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Router       /refunds [get]
func (h *RefundHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	name, page, err := listQuery(c)
	if err != nil {
		return err
	}

	list, err := h.service.List(c.Request().Context(), a, ports.ListInput{Name: name, Page: page})
	if err != nil {
		return err
	}

	data := make([]refundResponse, 0, len(list.Items))
	for _, r := range list.Items {
		data = append(data, toRefundResponse(r))
	}
	return c.JSON(http.StatusOK, listResponse[refundResponse]{
		Data:       data,
		Pagination: newPagination(list.Page, list.TotalRecords, list.TotalPages),
	})
}

// Show handles GET /refunds/:id.
//
// @Summary      Get a refund
// @Tags         refunds
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Refund ID"
// @Success      200  {object}  refundResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /refunds/{id} [get]
func (h *RefundHandler) Show(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	refund, err := h.service.Show(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRefundResponse(refund))
}

// Update handles PATCH /refunds/:id.
//
// @Summary      Update a refund
// @Tags         refunds
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Refund ID"
// @Param        body  body      updateRefundRequest  true  "Fields to change"
// @Success      200   {object}  refundResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /refunds/{id} [patch]
func (h *RefundHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req updateRefundRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Update(c.Request().Context(), a, c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	if res.Outcome != patch.Changed {
		return c.JSON(http.StatusOK, messageResponse{Message: res.Outcome.Message()})
	}
	return c.JSON(http.StatusOK, toRefundResponse(res.Refund))
}

// Delete handles DELETE /refunds/:id.
//
// @Summary      Delete a refund
// @Tags         refunds
// @Security     BearerAuth
// @Param        id  path  string  true  "Refund ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /refunds/{id} [delete]
func (h *RefundHandler) Delete(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.service.Remove(c.Request().Context(), a, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
