package controller

import (
	"net/http"

	"github.com/Freeeeeet/aula_backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// AuthConfig параметры проверки JWT провайдера аутентификации
type AuthConfig struct {
	Secret []byte
	Issuer string
}

// Services сервисы, которые обслуживает HTTP слой
type Services struct {
	Users        *service.UserService
	Asignaciones *service.AsignacionService
	Clases       *service.ClaseService
	Sesiones     *service.SesionService
	GuiasTema    *service.GuiaTemaService
	Dashboard    *service.DashboardService
	Admin        *service.AdminService
}

type Server struct {
	auth        AuthConfig
	corsOrigins []string
	gatherer    prometheus.Gatherer
	validate    *validator.Validate
	logger      *zap.Logger

	users        *service.UserService
	asignaciones *service.AsignacionService
	clases       *service.ClaseService
	sesiones     *service.SesionService
	guiasTema    *service.GuiaTemaService
	dashboard    *service.DashboardService
	admin        *service.AdminService
}

// NewServer gatherer может быть nil, тогда /metrics отдаёт реестр по умолчанию
func NewServer(auth AuthConfig, corsOrigins []string, svc Services, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{
		auth:         auth,
		corsOrigins:  corsOrigins,
		gatherer:     gatherer,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger,
		users:        svc.Users,
		asignaciones: svc.Asignaciones,
		clases:       svc.Clases,
		sesiones:     svc.Sesiones,
		guiasTema:    svc.GuiasTema,
		dashboard:    svc.Dashboard,
		admin:        svc.Admin,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metricsHandler())

	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		// учитель
		r.Post("/crear-clase", s.handleCrearClase)
		r.Post("/programar-sesion", s.handleProgramarSesion)
		r.Post("/generar-clase", s.handleGenerarClase)
		r.Post("/validar-clase", s.handleValidarClase)
		r.Post("/actualizar-estado-clase", s.handleActualizarEstadoClase)
		r.Post("/estado-clase", s.handleEstadoClase)
		r.Post("/iniciar-tema", s.handleIniciarTema)
		r.Post("/actualizar-guia-tema", s.handleActualizarGuiaTema)
		r.Post("/dashboard-profesor", s.handleDashboardProfesor)
		r.Post("/get-mis-temas", s.handleMisTemas)
		r.Post("/calendario-semana", s.handleCalendarioSemana)
		r.Post("/vincular-telegram", s.handleVincularTelegram)

		// администратор
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/get-asignaciones-admin", s.handleAsignacionesAdmin)
			r.Post("/get-plan-anual-admin", s.handlePlanAnualAdmin)
			r.Post("/crear-asignacion", s.handleCrearAsignacion)
			r.Post("/actualizar-asignacion", s.handleActualizarAsignacion)
		})
	})

	return r
}

func (s *Server) metricsHandler() http.Handler {
	if s.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}
