package model

import (
	"time"

	"github.com/google/uuid"
)

type PlanAnual struct {
	ID          uuid.UUID `json:"id"`
	Nombre      string    `json:"nombre"`
	Grado       string    `json:"grado"`
	AnioEscolar string    `json:"anio_escolar"`
	Descripcion string    `json:"descripcion"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
}

type Materia struct {
	ID             uuid.UUID `json:"id"`
	IDPlanAnual    uuid.UUID `json:"id_plan_anual"`
	Nombre         string    `json:"nombre"`
	Descripcion    string    `json:"descripcion"`
	HorasSemanales int       `json:"horas_semanales"`
	CreatedAt      time.Time `json:"created_at"`

	Plan *PlanAnual `json:"plan_anual,omitempty"`
}

type Tema struct {
	ID                uuid.UUID `json:"id"`
	IDMateria         uuid.UUID `json:"id_materia"`
	Nombre            string    `json:"nombre"`
	Descripcion       string    `json:"descripcion"`
	Orden             int       `json:"orden"`
	SesionesEstimadas int       `json:"sesiones_estimadas"`
	CreatedAt         time.Time `json:"created_at"`
}

type Grupo struct {
	ID              uuid.UUID `json:"id"`
	Nombre          string    `json:"nombre"`
	Grado           string    `json:"grado"`
	Seccion         string    `json:"seccion"`
	AnioEscolar     string    `json:"anio_escolar"`
	CantidadAlumnos int       `json:"cantidad_alumnos"`
	CreatedAt       time.Time `json:"created_at"`
}
