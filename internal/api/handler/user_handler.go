package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expensehub/refund-api/internal/api/metrics"
	"github.com/expensehub/refund-api/internal/api/middleware"
	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
	"github.com/expensehub/refund-api/internal/core/ports"
)

// UserHandler handles HTTP requests for user accounts.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Create handles POST /users.
//
// @Summary      Register a user
// @Description  Role defaults to employee. Registering a manager requires a manager bearer token.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "User details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Register(c.Request().Context(), middleware.CurrentUser(c), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	metrics.UsersRegisteredTotal.WithLabelValues(string(user.Role)).Inc()
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// List handles GET /users. Employees only ever see themselves.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        name     query     string  false  "Case-insensitive name filter"
// @Param        page     query     int     false  "Page number"      default(1)
// @Param        perPage  query     int     false  "Items per page"   default(10)
// @Success      200      {object}  listResponse[userResponse]
// @Failure      400      {object}  map[string]any
// @Failure      401      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
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

	data := make([]userResponse, 0, len(list.Items))
	for _, u := range list.Items {
		data = append(data, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, listResponse[userResponse]{
		Data:       data,
		Pagination: newPagination(list.Page, list.TotalRecords, list.TotalPages),
	})
}

// Show handles GET /users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) Show(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	user, err := h.service.Show(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Update handles PATCH /users/:id. Only submitted fields that differ are written.
//
// @Summary      Update a user
// @Description  Changing role requires a manager. No-op requests return 200 with a message.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
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
	return c.JSON(http.StatusOK, toUserResponse(res.User))
}

// Delete handles DELETE /users/:id. Users who still own refunds cannot be removed.
//
// @Summary      Delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  string  true  "User ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.service.Remove(c.Request().Context(), a, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
