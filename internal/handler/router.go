package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/middleware"
	"eduplatform-web/internal/preferences"
	"eduplatform-web/internal/routes"
	"eduplatform-web/internal/security"
	"eduplatform-web/internal/service"
	"eduplatform-web/internal/session"
	ws "eduplatform-web/internal/websocket"
)

// RouterConfig carries everything the web shell serves
type RouterConfig struct {
	Session        *session.Store
	Auth           *service.AuthService
	Courses        *service.CourseService
	Users          *service.UserService
	Preferences    *preferences.Store
	Tokens         *security.TokenManager
	Hub            *ws.Hub
	AllowedOrigins []string
	// OpenAPI validates the /api routes; nil disables validation
	OpenAPI       *middleware.OpenAPIValidatorConfig
	AuthRateLimit middleware.RateLimitConfig
	Readiness     []ReadinessCheck
}

// NewRouter wires the UI routes, the /api endpoints, the notification
// socket and the operational endpoints
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics())
	r.Use(middleware.CSRF(cfg.Tokens))

	r.Get("/health", Health)
	r.Get("/health/ready", Ready(cfg.Readiness...))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/notifications", NewWebSocketHandler(cfg.Hub, cfg.AllowedOrigins).HandleConnection)

	pages := NewPageHandler(cfg.Session, cfg.Auth, cfg.Users, cfg.Preferences, cfg.Tokens)
	courses := NewCourseHandler(cfg.Courses)
	auth := NewAuthHandler(cfg.Auth, cfg.Session)
	users := NewUserHandler(cfg.Users)
	settings := NewSettingsHandler(cfg.Preferences)

	page := func(path string, h http.HandlerFunc) {
		rt, ok := routes.Lookup(path)
		if !ok {
			panic(fmt.Sprintf("route %s is missing from routes.Table", path))
		}
		r.With(middleware.Route(cfg.Session, rt)).Get(path, h)
	}
	page(routes.Home, pages.Landing)
	page(routes.Login, pages.Public("login"))
	page(routes.Register, pages.Public("register"))
	page(routes.ForgotPassword, pages.Public("forgot-password"))
	page(routes.ResetPassword, pages.Public("reset-password"))
	page(routes.VerifyEmail, pages.VerifyEmail)
	page(routes.Dashboard, pages.Dashboard("dashboard"))
	page(routes.MyCourses, pages.Dashboard("my-courses"))
	page(routes.InstructorDashboard, pages.Dashboard("instructor-dashboard"))
	page(routes.AdminDashboard, pages.AdminDashboard)
	page(routes.Courses, courses.List)
	page(routes.CourseDetail, courses.Detail)
	page(routes.Profile, pages.Profile)
	page(routes.Settings, pages.Settings)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.OpenAPIValidator(cfg.OpenAPI))

		r.Get("/csrf-token", CSRFToken(cfg.Tokens))

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateLimit))
			r.Post("/login", auth.Login)
			r.Post("/register", auth.Register)
			r.Post("/logout", auth.Logout)
			r.Get("/verify-email", auth.VerifyEmail)
			r.Post("/resend-verification", auth.ResendVerification)
			r.Post("/forgot-password", auth.ForgotPassword)
			r.Post("/reset-password", auth.ResetPassword)
			r.With(middleware.APIAuth(cfg.Session)).Post("/change-password", auth.ChangePassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIAuth(cfg.Session))
			r.Get("/me", auth.Me)
			r.Put("/me", auth.UpdateMe)
		})

		// Preferences belong to the device, not the account
		r.Get("/settings", settings.Get)
		r.Put("/settings", settings.Update)
		r.Post("/settings/theme/toggle", settings.ToggleTheme)
		r.Post("/settings/sidebar/toggle", settings.ToggleSidebar)

		r.Route("/courses", func(r chi.Router) {
			r.Use(middleware.APIAuth(cfg.Session, domain.RoleInstructor, domain.RoleAdmin))
			r.Post("/", courses.Create)
			r.Put("/{id}", courses.Update)
			r.Delete("/{id}", courses.Delete)
			r.Post("/{id}/publish", courses.Publish)
			r.Get("/{id}/stats", courses.Stats)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.APIAuth(cfg.Session, domain.RoleAdmin))
			r.Get("/", users.List)
			r.Get("/{id}", users.Get)
			r.Delete("/{id}", users.Delete)
			r.Put("/{id}/status", users.UpdateStatus)
			r.Get("/{id}/stats", users.Stats)
		})
	})

	return r
}
