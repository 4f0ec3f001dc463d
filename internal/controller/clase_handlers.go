package controller

import (
	"net/http"

	"github.com/Freeeeeet/aula_backend/internal/service"
	"github.com/google/uuid"
)

type claseRequest struct {
	IDClase uuid.UUID `json:"id_clase" validate:"required"`
}

func (s *Server) handleCrearClase(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	var in service.CrearClaseInput
	if !s.decode(w, r, &in) {
		return
	}

	result, err := s.clases.CrearClase(r.Context(), profesor, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProgramarSesion(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	var in service.ProgramarSesionInput
	if !s.decode(w, r, &in) {
		return
	}

	result, err := s.sesiones.ProgramarSesion(r.Context(), profesor, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGenerarClase(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	var in claseRequest
	if !s.decode(w, r, &in) {
		return
	}

	version, err := s.clases.GenerarGuia(r.Context(), profesor, in.IDClase)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"guia_version": version})
}

func (s *Server) handleValidarClase(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	var in claseRequest
	if !s.decode(w, r, &in) {
		return
	}

	clase, err := s.clases.ValidarClase(r.Context(), profesor, in.IDClase)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"clase": clase})
}

func (s *Server) handleActualizarEstadoClase(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	var in service.ActualizarEstadoInput
	if !s.decode(w, r, &in) {
		return
	}

	view, err := s.clases.ActualizarEstado(r.Context(), profesor, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// handleEstadoClase опрашивается клиентом пока идёт генерация гида
func (s *Server) handleEstadoClase(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	var in claseRequest
	if !s.decode(w, r, &in) {
		return
	}

	view, err := s.clases.GetEstado(r.Context(), profesor, in.IDClase)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleIniciarTema(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	var in service.IniciarTemaInput
	if !s.decode(w, r, &in) {
		return
	}

	guia, err := s.guiasTema.IniciarTema(r.Context(), profesor, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"guia_tema": guia})
}

func (s *Server) handleActualizarGuiaTema(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	var in service.ActualizarGuiaTemaInput
	if !s.decode(w, r, &in) {
		return
	}

	guia, err := s.guiasTema.ActualizarGuiaTema(r.Context(), profesor, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"guia_tema": guia})
}
