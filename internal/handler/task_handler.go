package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"medisync/internal/access"
	apperrors "medisync/internal/errors"
	"medisync/internal/model"
	"medisync/internal/service"
)

// TaskHandler serves the task board.
type TaskHandler struct {
	tasks service.TaskService
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// ListTasks godoc
// @Summary List tasks
// @Description Coordinators and admins see every task, others only their own. group=status returns pending, in-progress and completed columns.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param search query string false "Task or patient name substring"
// @Param status query string false "Task status"
// @Param group query string false "Set to status to group results"
// @Success 200 {array} service.TaskView
// @Failure 400 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	tasks, err := h.tasks.ListTasksFor(c.Request().Context(), currentUser(c), service.TaskFilter{
		Search: c.QueryParam("search"),
		Status: model.TaskStatus(c.QueryParam("status")),
	})
	if err != nil {
		return fail(err)
	}

	if c.QueryParam("group") == "status" {
		return c.JSON(http.StatusOK, service.GroupByStatus(tasks))
	}
	return c.JSON(http.StatusOK, tasks)
}

// UpdateStatus godoc
// @Summary Update task status
// @Description Allowed for the assignee and for roles that may update any task. Unknown ids change nothing.
// @Tags tasks
// @Accept json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	var req UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err := h.tasks.UpdateTaskStatus(c.Request().Context(), c.Param("id"), model.TaskStatus(req.Status), currentUser(c))
	if err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UserTasks godoc
// @Summary Tasks assigned to a user
// @Description Users may read their own tasks. Reading someone else's requires the view-all-tasks capability.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {array} model.Task
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/{id}/tasks [get]
func (h *TaskHandler) UserTasks(c echo.Context) error {
	userID := c.Param("id")
	user := currentUser(c)
	if user == nil || (user.ID != userID && !access.Can(user.Role, access.ViewAllTasks)) {
		return fail(apperrors.ErrForbidden)
	}

	tasks, err := h.tasks.GetUserTasks(c.Request().Context(), userID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, tasks)
}
