package service

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden = errors.New("permission denied")
	ErrNotAdmin  = errors.New("admin role required")
)

// NotFoundError отсутствует обязательная предварительная запись; Guidance показывается пользователю
type NotFoundError struct {
	Resource string
	Guidance string
}

func (e *NotFoundError) Error() string {
	return e.Guidance
}

// ConflictError запись уже существует
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// InvalidInputError ошибка во входных данных, отдаётся клиенту как есть
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

func invalidInput(format string, args ...any) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

var (
	errProfesorNotFound = &NotFoundError{
		Resource: "profesor",
		Guidance: "Tu usuario no tiene un perfil de profesor. Pide a un administrador que te registre como profesor.",
	}
	errGuiaTemaNotFound = &NotFoundError{
		Resource: "guia_tema",
		Guidance: "No existe una guía maestra para este tema. Crea primero la guía maestra del tema (Iniciar tema) y vuelve a programar la sesión.",
	}
	errTemaNotFound = &NotFoundError{
		Resource: "tema",
		Guidance: "El tema no existe. Verifica el plan anual de la materia.",
	}
	errGrupoNotFound = &NotFoundError{
		Resource: "grupo",
		Guidance: "El grupo no existe. Verifica tus asignaciones.",
	}
	errClaseNotFound = &NotFoundError{
		Resource: "clase",
		Guidance: "La clase no existe o fue eliminada.",
	}
	errGuiaVersionNotFound = &NotFoundError{
		Resource: "guia_version",
		Guidance: "La clase todavía no tiene una guía. Genera la guía de la clase antes de validarla.",
	}
)

// IsNotFound проверяет что ошибка NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
