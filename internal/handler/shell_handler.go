package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"medisync/internal/access"
	"medisync/internal/service"
)

// ShellHandler serves navigation and the landing page.
type ShellHandler struct {
	dashboard service.DashboardService
}

// NewShellHandler creates a shell handler.
func NewShellHandler(dashboard service.DashboardService) *ShellHandler {
	return &ShellHandler{dashboard: dashboard}
}

// Navigation godoc
// @Summary Menu items for the signed-in role
// @Tags shell
// @Produce json
// @Security BearerAuth
// @Success 200 {array} access.MenuItem
// @Router /shell/navigation [get]
func (h *ShellHandler) Navigation(c echo.Context) error {
	return c.JSON(http.StatusOK, access.Menu(currentUser(c).Role))
}

// Route godoc
// @Summary Gate decision for a front-end route
// @Tags shell
// @Produce json
// @Security BearerAuth
// @Param path query string true "Front-end path, e.g. /users"
// @Success 200 {object} access.Decision
// @Failure 400 {object} errors.ErrorResponse
// @Router /shell/route [get]
func (h *ShellHandler) Route(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return badRequest("path is required")
	}
	return c.JSON(http.StatusOK, access.CheckPath(access.SessionFrom(c), path))
}

// Dashboard godoc
// @Summary Landing page summary
// @Tags shell
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Dashboard
// @Router /dashboard [get]
func (h *ShellHandler) Dashboard(c echo.Context) error {
	dash, err := h.dashboard.Dashboard(c.Request().Context(), currentUser(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dash)
}
