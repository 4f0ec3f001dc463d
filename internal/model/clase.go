package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Clase struct {
	ID                  uuid.UUID   `json:"id"`
	IDTema              uuid.UUID   `json:"id_tema"`
	IDGrupo             uuid.UUID   `json:"id_grupo"`
	IDProfesor          uuid.UUID   `json:"id_profesor"`
	IDGuiaTema          *uuid.UUID  `json:"id_guia_tema"`
	IDGuiaVersionActual *uuid.UUID  `json:"id_guia_version_actual"`
	NumeroSesion        *int        `json:"numero_sesion"`
	FechaProgramada     *time.Time  `json:"fecha_programada"`
	FechaEjecucion      *time.Time  `json:"fecha_ejecucion"`
	DuracionMinutos     int         `json:"duracion_minutos"`
	Estado              EstadoClase `json:"estado"`
	Observaciones       *string     `json:"observaciones"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`

	// Заполняются join'ами, в таблице clases их нет
	Tema  *Tema  `json:"tema,omitempty"`
	Grupo *Grupo `json:"grupo,omitempty"`
}

// GuiaVersion версия гида конкретного занятия (guias_clase_versiones), только добавление
type GuiaVersion struct {
	ID            uuid.UUID       `json:"id"`
	IDClase       uuid.UUID       `json:"id_clase"`
	VersionNumero int             `json:"version_numero"`
	Contenido     json.RawMessage `json:"contenido"`
	EsFinal       bool            `json:"es_final"`
	GeneradaIA    bool            `json:"generada_ia"`
	CreatedBy     *uuid.UUID      `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

const (
	RecomendacionContinuidad = "continuidad"

	// DefaultRecomendacion используется когда у прошлого занятия нет observaciones
	DefaultRecomendacion = "Revisa los resultados y observaciones de la clase anterior sobre este tema antes de iniciar."
)

// Recomendacion производная заметка, связывающая новое занятие с прошлым
type Recomendacion struct {
	ID              uuid.UUID `json:"id"`
	IDClase         uuid.UUID `json:"id_clase"`
	IDClaseAnterior uuid.UUID `json:"id_clase_anterior"`
	Tipo            string    `json:"tipo"`
	Contenido       string    `json:"contenido"`
	Aplicada        bool      `json:"aplicada"`
	CreatedAt       time.Time `json:"created_at"`
}
