package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Freeeeeet/aula_backend/internal/ai"
	"github.com/Freeeeeet/aula_backend/internal/service"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

const (
	msgUnauthorized  = "No autorizado"
	msgForbidden     = "No tienes permiso para realizar esta acción"
	msgAdminOnly     = "Acceso denegado: se requiere rol de administrador"
	msgRateLimited   = "Límite de solicitudes de IA excedido. Intenta de nuevo en unos minutos."
	msgQuotaExceeded = "Se agotaron los créditos de IA. Contacta al administrador."
	msgBadJSON       = "Cuerpo de la solicitud inválido"
	msgInternal      = "Error al obtener los datos"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode читает JSON тело и проверяет теги validate; пустое тело допустимо
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgBadJSON)
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return msgBadJSON
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "Campos inválidos: " + strings.Join(fields, ", ")
}

// writeServiceError переводит ошибку сервиса в HTTP ответ
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound *service.NotFoundError
		conflict *service.ConflictError
		badInput *service.InvalidInputError
	)

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Guidance)
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &badInput):
		writeError(w, http.StatusBadRequest, badInput.Message)
	case errors.Is(err, service.ErrNotAdmin):
		writeError(w, http.StatusForbidden, msgAdminOnly)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, msgForbidden)
	case errors.Is(err, ai.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, ai.ErrQuotaExhausted):
		writeError(w, http.StatusPaymentRequired, msgQuotaExceeded)
	default:
		s.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(r)),
			zap.Error(err),
		)
		// текст ошибки БД наружу не отдаётся, только сбой разбора ответа ИИ
		msg := msgInternal
		if errors.Is(err, ai.ErrMalformedJSON) {
			msg = err.Error()
		}
		writeError(w, http.StatusInternalServerError, msg)
	}
}
