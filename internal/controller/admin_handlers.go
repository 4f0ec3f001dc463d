package controller

import (
	"net/http"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type actualizarAsignacionRequest struct {
	ID uuid.UUID `json:"id" validate:"required"`
	service.AsignacionInput
}

type asignacionResponse struct {
	service.ValidationResult
	Asignacion *model.Asignacion `json:"asignacion,omitempty"`
}

func (s *Server) handleAsignacionesAdmin(w http.ResponseWriter, r *http.Request) {
	out, err := s.admin.Asignaciones(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlanAnualAdmin(w http.ResponseWriter, r *http.Request) {
	planes, err := s.admin.PlanAnual(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"planes": planes})
}

func (s *Server) handleCrearAsignacion(w http.ResponseWriter, r *http.Request) {
	var in service.AsignacionInput
	if !s.decode(w, r, &in) {
		return
	}

	asignacion, result, err := s.asignaciones.Create(r.Context(), in)
	s.writeAsignacion(w, r, asignacion, result, err)
}

func (s *Server) handleActualizarAsignacion(w http.ResponseWriter, r *http.Request) {
	var in actualizarAsignacionRequest
	if !s.decode(w, r, &in) {
		return
	}

	asignacion, result, err := s.asignaciones.Update(r.Context(), in.ID, in.AsignacionInput)
	s.writeAsignacion(w, r, asignacion, result, err)
}

// writeAsignacion невалидное назначение это 422 с телом проверки, а не ошибка
func (s *Server) writeAsignacion(w http.ResponseWriter, r *http.Request, asignacion *model.Asignacion, result service.ValidationResult, err error) {
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !result.IsValid {
		s.logger.Info("Asignacion rejected", zap.String("reason", result.Error))
		writeJSON(w, http.StatusUnprocessableEntity, asignacionResponse{ValidationResult: result})
		return
	}

	writeJSON(w, http.StatusOK, asignacionResponse{ValidationResult: result, Asignacion: asignacion})
}
