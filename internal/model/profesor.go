package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleProfesor Role = "profesor"
	RoleAlumno   Role = "alumno"
)

type Profesor struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Nombre         string    `json:"nombre"`
	Apellidos      string    `json:"apellidos"`
	Email          string    `json:"email"`
	Activo         bool      `json:"activo"`
	TelegramChatID *int64    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// NombreCompleto возвращает имя для отображения
func (p *Profesor) NombreCompleto() string {
	if p.Apellidos == "" {
		return p.Nombre
	}
	return p.Nombre + " " + p.Apellidos
}
