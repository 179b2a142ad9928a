package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisync/internal/access"
	"medisync/internal/archive"
	"medisync/internal/auth"
	"medisync/internal/cache"
	apperrors "medisync/internal/errors"
	"medisync/internal/feed"
	"medisync/internal/handler"
	"medisync/internal/model"
	"medisync/internal/notify"
	"medisync/internal/repository"
	"medisync/internal/router"
	"medisync/internal/service"
)

const secret = "test-secret"

type testServer struct {
	e     *echo.Echo
	store *repository.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	store := repository.NewMemoryStore()
	c := cache.NewMemory()
	mailer := notify.NewLogMailer(logger)
	publisher := feed.Nop{}
	hub := feed.NewHub(logger)

	jwtService := auth.NewJWTService(secret)
	tokenStore := auth.NewTokenStore(c)
	idp := auth.NewLocalProvider(store.Identities, tokenStore, mailer)
	statusLog := service.NewStatusLog(store.StatusChanges, logger)
	t.Cleanup(statusLog.Close)

	sessions := service.NewSessionService(idp, store.Users, jwtService, tokenStore, logger)
	patients := service.NewPatientService(store.Patients, store.Tasks, store.StatusChanges, statusLog, publisher, archive.Nop{}, logger)
	tasks := service.NewTaskService(store.Tasks, store.Patients, store.Users, statusLog, publisher, logger)
	users := service.NewUserService(store.Users, idp, mailer, c, tokenStore, publisher, logger)

	e := echo.New()
	router.Register(e, router.Deps{
		Logger:     logger,
		JWTSecret:  []byte(secret),
		TokenStore: tokenStore,
		Sessions:   sessions,
		Auth:       handler.NewAuthHandler(sessions, jwtService),
		Patients:   handler.NewPatientHandler(patients, tasks),
		Tasks:      handler.NewTaskHandler(tasks),
		Users:      handler.NewUserHandler(users),
		Shell:      handler.NewShellHandler(service.NewDashboardService(store.Patients, store.Tasks)),
		Feed:       feed.NewHandler(hub),
	})
	return &testServer{e: e, store: store}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// register signs up a user and returns their access token and profile.
func (s *testServer) register(t *testing.T, name, email string, role model.Role) (string, model.User) {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123", "role": string(role),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp handler.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken, *resp.User
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/patients", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "UNAUTHENTICATED", resp.Code)
	assert.Equal(t, access.LoginPath, resp.Redirect)
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Dr. Sarah Johnson", "doctor@example.com", model.RoleDoctor)

	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "doctor@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTHENTICATION_FAILED", decodeError(t, rec).Code)

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "doctor@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens handler.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))

	rec = s.do(http.MethodGet, "/api/auth/session", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var session handler.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, model.RoleDoctor, session.User.Role)
	assert.Contains(t, session.Capabilities, access.IntakePatients)
	assert.NotContains(t, session.Capabilities, access.ManageUsers)

	rec = s.do(http.MethodPost, "/api/auth/logout", tokens.AccessToken, map[string]string{"refresh_token": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/auth/session", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGating(t *testing.T) {
	s := newTestServer(t)
	nurseToken, _ := s.register(t, "Nurse Michael Chen", "nurse@example.com", model.RoleNurse)
	doctorToken, _ := s.register(t, "Dr. Sarah Johnson", "doctor@example.com", model.RoleDoctor)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		status   int
		redirect string
	}{
		{"nurse cannot manage users", http.MethodGet, "/api/users", nurseToken, http.StatusForbidden, access.LandingPath},
		{"nurse cannot admit", http.MethodPost, "/api/patients", nurseToken, http.StatusForbidden, access.LandingPath},
		{"nurse cannot change patient status", http.MethodPatch, "/api/patients/p1/status", nurseToken, http.StatusForbidden, access.LandingPath},
		{"doctor cannot assign tasks", http.MethodPost, "/api/patients/p1/tasks", doctorToken, http.StatusForbidden, access.LandingPath},
		{"doctor cannot load task template", http.MethodGet, "/api/patients/p1/task-template", doctorToken, http.StatusForbidden, access.LandingPath},
		{"doctor cannot manage users", http.MethodDelete, "/api/users/1", doctorToken, http.StatusForbidden, access.LandingPath},
		{"nurse reads dashboard", http.MethodGet, "/api/dashboard", nurseToken, http.StatusOK, ""},
		{"nurse reads patients", http.MethodGet, "/api/patients", nurseToken, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.token, map[string]string{"status": "discharged"})
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.redirect != "" {
				assert.Equal(t, tt.redirect, decodeError(t, rec).Redirect)
			}
		})
	}
}

func TestShellNavigation(t *testing.T) {
	s := newTestServer(t)
	nurseToken, _ := s.register(t, "Nurse Michael Chen", "nurse@example.com", model.RoleNurse)

	rec := s.do(http.MethodGet, "/api/shell/navigation", nurseToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []access.MenuItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{"Dashboard", "Tasks"}, labels)

	rec = s.do(http.MethodGet, "/api/shell/route?path=/users", nurseToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var decision access.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, access.RedirectLanding, decision.Outcome)
	assert.Equal(t, access.LandingPath, decision.Redirect)
}

func TestCreatePatientValidation(t *testing.T) {
	s := newTestServer(t)
	doctorToken, _ := s.register(t, "Dr. Sarah Johnson", "doctor@example.com", model.RoleDoctor)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{"age missing", map[string]interface{}{"name": "John Doe", "symptoms": "Chest pain", "department": "cardiology"}, http.StatusBadRequest},
		{"age above range", map[string]interface{}{"name": "John Doe", "age": 121, "symptoms": "Chest pain", "department": "cardiology"}, http.StatusBadRequest},
		{"age negative", map[string]interface{}{"name": "John Doe", "age": -1, "symptoms": "Chest pain", "department": "cardiology"}, http.StatusBadRequest},
		{"symptoms missing", map[string]interface{}{"name": "John Doe", "age": 45, "department": "cardiology"}, http.StatusBadRequest},
		{"newborn", map[string]interface{}{"name": "Baby Doe", "age": 0, "symptoms": "Jaundice", "department": "pediatrics"}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/patients", doctorToken, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusBadRequest {
				assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rec).Code)
			}
		})
	}
}

func TestPatientAndTaskWorkflow(t *testing.T) {
	s := newTestServer(t)
	doctorToken, _ := s.register(t, "Dr. Sarah Johnson", "doctor@example.com", model.RoleDoctor)
	nurseToken, nurse := s.register(t, "Nurse Michael Chen", "nurse@example.com", model.RoleNurse)
	coordToken, coord := s.register(t, "Emma Rodriguez", "coordinator@example.com", model.RoleCoordinator)

	rec := s.do(http.MethodPost, "/api/patients", doctorToken, map[string]interface{}{
		"name": "John Doe", "age": 45, "symptoms": "Chest pain", "is_emergency": true, "department": "cardiology",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var patient model.Patient
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patient))
	assert.Equal(t, model.PatientStatusAdmitted, patient.Status)

	rec = s.do(http.MethodPost, "/api/patients/"+patient.ID+"/tasks", coordToken, map[string]interface{}{
		"tasks": []map[string]string{
			{"task_name": "ECG monitoring", "assigned_to_id": nurse.ID, "due_date": "2024-01-01"},
			{"task_name": "", "assigned_to_id": nurse.ID},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created, 1)
	assert.Equal(t, "Nurse Michael Chen", created[0].AssignedToName)

	rec = s.do(http.MethodPatch, "/api/tasks/"+created[0].ID+"/status", nurseToken, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPatch, "/api/tasks/"+created[0].ID+"/status", nurseToken, map[string]string{"status": "pending"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/tasks", nurseToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []service.TaskView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, model.TaskStatusPending, views[0].Status)
	assert.Equal(t, "John Doe", views[0].PatientName)

	rec = s.do(http.MethodGet, "/api/users/"+coord.ID+"/tasks", nurseToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPatch, "/api/patients/unknown/status", doctorToken, map[string]string{"status": "discharged"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodPatch, "/api/patients/"+patient.ID+"/status", doctorToken, map[string]string{"status": "in-treatment"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/patients/"+patient.ID, nurseToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patient))
	assert.Equal(t, model.PatientStatusInTreatment, patient.Status)

	rec = s.do(http.MethodGet, "/api/patients/missing", nurseToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/patients", decodeError(t, rec).Back)
}

func TestUserDirectory(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register(t, "Admin User", "admin@example.com", model.RoleAdmin)

	rec := s.do(http.MethodPost, "/api/users", adminToken, map[string]string{
		"name": "Nurse Michael Chen", "email": "nurse@example.com", "role": "nurse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = s.do(http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = s.do(http.MethodPost, "/api/users", adminToken, map[string]string{
		"name": "Dup", "email": "nurse@example.com", "role": "nurse",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, "/api/users/"+created.ID, adminToken, map[string]string{
		"name": "Michael Chen", "email": "nurse@example.com", "role": "coordinator",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodDelete, "/api/users/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/users/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
