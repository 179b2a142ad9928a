package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "medisync/internal/errors"
	"medisync/internal/model"
	"medisync/internal/service"
)

// PatientHandler serves the patient registry.
type PatientHandler struct {
	patients service.PatientService
	tasks    service.TaskService
}

// NewPatientHandler creates a patient handler.
func NewPatientHandler(patients service.PatientService, tasks service.TaskService) *PatientHandler {
	return &PatientHandler{patients: patients, tasks: tasks}
}

// CreatePatientRequest is the intake form.
type CreatePatientRequest struct {
	Name        string `json:"name" validate:"required"`
	Age         *int   `json:"age" validate:"required,gte=0,lte=120"`
	Symptoms    string `json:"symptoms" validate:"required"`
	IsEmergency bool   `json:"is_emergency"`
	RoomNo      string `json:"room_no"`
	Department  string `json:"department" validate:"required"`
	Diagnosis   string `json:"diagnosis"`
}

// UpdateStatusRequest carries a new patient or task status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PartialAssignResponse is the error body of a batch that failed midway. Created lists the
// tasks that were stored before the failure.
type PartialAssignResponse struct {
	apperrors.ErrorResponse
	Created []model.Task `json:"created"`
}

// AssignTasksRequest is the task assignment form for one patient.
type AssignTasksRequest struct {
	Tasks []service.TaskDraft `json:"tasks" validate:"required"`
}

// ListPatients godoc
// @Summary List patients
// @Description Filters by name or id substring, status and department. group=department returns every department with its patients.
// @Tags patients
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or id substring"
// @Param status query string false "Patient status"
// @Param department query string false "Department"
// @Param group query string false "Set to department to group results"
// @Success 200 {array} model.Patient
// @Failure 400 {object} errors.ErrorResponse
// @Router /patients [get]
func (h *PatientHandler) ListPatients(c echo.Context) error {
	patients, err := h.patients.ListPatients(c.Request().Context(), service.PatientFilter{
		Search:     c.QueryParam("search"),
		Status:     model.PatientStatus(c.QueryParam("status")),
		Department: model.Department(c.QueryParam("department")),
	})
	if err != nil {
		return fail(err)
	}

	if c.QueryParam("group") == "department" {
		return c.JSON(http.StatusOK, service.GroupByDepartment(patients))
	}
	return c.JSON(http.StatusOK, patients)
}

// CreatePatient godoc
// @Summary Admit a patient
// @Tags patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePatientRequest true "Intake form"
// @Success 201 {object} model.Patient
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /patients [post]
func (h *PatientHandler) CreatePatient(c echo.Context) error {
	var req CreatePatientRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	patient, err := h.patients.AddPatient(c.Request().Context(), service.AddPatientInput{
		Name:        req.Name,
		Age:         *req.Age,
		Symptoms:    req.Symptoms,
		IsEmergency: req.IsEmergency,
		RoomNo:      req.RoomNo,
		Department:  model.Department(req.Department),
		Diagnosis:   req.Diagnosis,
	}, currentUser(c))
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusCreated, patient)
}

// GetPatient godoc
// @Summary Get patient by id
// @Tags patients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {object} model.Patient
// @Failure 404 {object} errors.ErrorResponse
// @Router /patients/{id} [get]
func (h *PatientHandler) GetPatient(c echo.Context) error {
	patient, err := h.patients.GetPatientByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, patient)
}

// PatientTasks godoc
// @Summary Tasks for a patient
// @Tags patients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {array} model.Task
// @Router /patients/{id}/tasks [get]
func (h *PatientHandler) PatientTasks(c echo.Context) error {
	tasks, err := h.tasks.GetPatientTasks(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// PatientHistory godoc
// @Summary Status history for a patient
// @Tags patients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {array} model.StatusChange
// @Failure 404 {object} errors.ErrorResponse
// @Router /patients/{id}/history [get]
func (h *PatientHandler) PatientHistory(c echo.Context) error {
	history, err := h.patients.PatientHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, history)
}

// UpdateStatus godoc
// @Summary Update patient status
// @Description Unknown ids are accepted and change nothing.
// @Tags patients
// @Accept json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /patients/{id}/status [patch]
func (h *PatientHandler) UpdateStatus(c echo.Context) error {
	var req UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err := h.patients.UpdatePatientStatus(c.Request().Context(), c.Param("id"), model.PatientStatus(req.Status), currentUser(c))
	if err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TaskTemplate godoc
// @Summary Prefilled task drafts for a patient's department
// @Tags patients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {array} service.TaskDraft
// @Failure 404 {object} errors.ErrorResponse
// @Router /patients/{id}/task-template [get]
func (h *PatientHandler) TaskTemplate(c echo.Context) error {
	drafts, err := h.tasks.TemplateDrafts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, drafts)
}

// AssignTasks godoc
// @Summary Assign tasks to staff for a patient
// @Description Drafts without a task name or assignee are skipped. Blank due dates default to today.
// @Tags patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param request body AssignTasksRequest true "Task drafts"
// @Success 201 {array} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} PartialAssignResponse
// @Router /patients/{id}/tasks [post]
func (h *PatientHandler) AssignTasks(c echo.Context) error {
	var req AssignTasksRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tasks, err := h.tasks.AssignTasks(c.Request().Context(), c.Param("id"), req.Tasks)
	if err != nil {
		if len(tasks) == 0 {
			return fail(err)
		}
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, PartialAssignResponse{
			ErrorResponse: httpErr.ToErrorResponse(),
			Created:       tasks,
		}).SetInternal(err)
	}
	return c.JSON(http.StatusCreated, tasks)
}
