package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventregistration/internal/delivery/http/controllers"
	"eventregistration/internal/delivery/http/middleware"
	"eventregistration/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Registration *controllers.RegistrationController
	Events       *controllers.EventController
	Files        *controllers.FileController
	Admin        *controllers.AdminController
	Auth         *controllers.AuthController
}

// NewRouter initializes the HTTP router with all application routes.
// Admin routes require a bearer token accepted by verifier.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	admin := middleware.RequireAuth(verifier, logger)

	// Public
	mux.HandleFunc("POST /registration", c.Registration.Register)
	mux.HandleFunc("GET /registration-details", c.Registration.Details)
	mux.HandleFunc("GET /events", c.Events.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", c.Events.GetEvent)
	mux.HandleFunc("GET /files/{filename}", c.Files.ServeFile)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Admin
	mux.HandleFunc("POST /admin/login", c.Auth.Login)
	mux.HandleFunc("GET /admin/registrations", admin(c.Admin.ListRegistrations))
	mux.HandleFunc("DELETE /admin/registrations", admin(c.Admin.FlushRegistrations))
	mux.HandleFunc("GET /admin/registrations/export.csv", admin(c.Admin.ExportRegistrations))
	mux.HandleFunc("GET /admin/registrations/{id}", admin(c.Admin.GetRegistration))
	mux.HandleFunc("DELETE /admin/registrations/{id}", admin(c.Admin.DeleteRegistration))
	mux.HandleFunc("DELETE /admin/files/{filename}", admin(c.Admin.DeleteFile))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps the router with panic recovery, request logging and CORS.
func NewHandler(mux http.Handler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	return middleware.CORS(allowedOrigins, middleware.LoggingMiddleware(logger, middleware.Recover(logger, mux)))
}
