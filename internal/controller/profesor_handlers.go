package controller

import (
	"net/http"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

const msgBadFecha = "Fecha inválida, usa el formato AAAA-MM-DD"

type calendarioRequest struct {
	Fecha string `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handleDashboardProfesor(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	dash, err := s.dashboard.DashboardProfesor(r.Context(), profesor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleMisTemas(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	temas, err := s.dashboard.MisTemas(r.Context(), profesor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"temas": temas})
}

// handleCalendarioSemana PNG недели; без fecha берётся текущая неделя
func (s *Server) handleCalendarioSemana(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	var in calendarioRequest
	if !s.decode(w, r, &in) {
		return
	}

	day := time.Now()
	if in.Fecha != "" {
		parsed, err := time.ParseInLocation(dateLayout, in.Fecha, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, msgBadFecha)
			return
		}
		day = parsed
	}

	png, err := s.dashboard.CalendarioSemana(r.Context(), profesor.ID, day)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleVincularTelegram(w http.ResponseWriter, r *http.Request) {
	profesor, ok := s.requireProfesor(w, r)
	if !ok {
		return
	}

	link, err := s.users.CreateTelegramLinkCode(r.Context(), profesor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"code":          link.Code,
		"expires_at":    link.ExpiresAt,
		"instrucciones": "Envía /vincular " + link.Code + " al bot de Telegram",
	})
}
