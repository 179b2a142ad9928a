package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"medisync/internal/access"
	"medisync/internal/auth"
	apperrors "medisync/internal/errors"
	"medisync/internal/feed"
	"medisync/internal/handler"
	"medisync/internal/middleware"
	"medisync/internal/service"
)

// Deps carries everything the routes need.
type Deps struct {
	Logger     zerolog.Logger
	JWTSecret  []byte
	TokenStore auth.TokenStoreInterface
	Sessions   service.SessionService

	Auth     *handler.AuthHandler
	Patients *handler.PatientHandler
	Tasks    *handler.TaskHandler
	Users    *handler.UserHandler
	Shell    *handler.ShellHandler
	Feed     *feed.Handler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.Logger))
	e.Use(middleware.Recovery(d.Logger))

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)
	api.POST("/auth/logout", d.Auth.Logout)
	api.POST("/auth/forgot-password", d.Auth.ForgotPassword)
	api.POST("/auth/reset-password", d.Auth.ResetPassword)

	// Secured routes (require JWT authentication). Browsers cannot set headers on
	// websocket upgrades, so the token is also read from ?token=.
	secured := api.Group("",
		echojwt.WithConfig(echojwt.Config{
			SigningKey:    d.JWTSecret,
			TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ,query:token",
			NewClaimsFunc: auth.NewClaims,
			ErrorHandler: func(c echo.Context, err error) error {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error:    "authentication required",
					Code:     "UNAUTHENTICATED",
					Redirect: access.LoginPath,
				}).SetInternal(err)
			},
		}),
		auth.RejectRevoked(d.TokenStore),
		handler.Session(d.Sessions),
		access.RequireCapability(""),
	)

	secured.GET("/auth/session", d.Auth.Session)

	// Shell
	secured.GET("/shell/navigation", d.Shell.Navigation)
	secured.GET("/shell/route", d.Shell.Route)
	secured.GET("/dashboard", d.Shell.Dashboard, access.RequireCapability(access.ViewDashboard))

	// Patient routes
	secured.GET("/patients", d.Patients.ListPatients)
	secured.POST("/patients", d.Patients.CreatePatient, access.RequireCapability(access.IntakePatients))
	secured.GET("/patients/:id", d.Patients.GetPatient)
	secured.GET("/patients/:id/tasks", d.Patients.PatientTasks)
	secured.GET("/patients/:id/history", d.Patients.PatientHistory)
	secured.PATCH("/patients/:id/status", d.Patients.UpdateStatus, access.RequireCapability(access.UpdatePatientStatus))
	secured.GET("/patients/:id/task-template", d.Patients.TaskTemplate, access.RequireCapability(access.AssignTasks))
	secured.POST("/patients/:id/tasks", d.Patients.AssignTasks, access.RequireCapability(access.AssignTasks))

	// Task routes
	secured.GET("/tasks", d.Tasks.ListTasks)
	secured.PATCH("/tasks/:id/status", d.Tasks.UpdateStatus)
	secured.GET("/users/:id/tasks", d.Tasks.UserTasks)

	// User directory
	manageUsers := access.RequireCapability(access.ManageUsers)
	secured.GET("/users", d.Users.ListUsers, manageUsers)
	secured.POST("/users", d.Users.CreateUser, manageUsers)
	secured.GET("/users/:id", d.Users.GetUser, manageUsers)
	secured.PUT("/users/:id", d.Users.UpdateUser, manageUsers)
	secured.DELETE("/users/:id", d.Users.DeleteUser, manageUsers)

	// Change feed
	secured.GET("/feed/ws", d.Feed.Connect)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
