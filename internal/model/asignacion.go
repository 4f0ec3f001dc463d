package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxHorasSemanales мягкий лимит нагрузки, превышение даёт только предупреждение
const MaxHorasSemanales = 40

// Asignacion связка profesor + materia + grupo на учебный год
type Asignacion struct {
	ID             uuid.UUID `json:"id"`
	IDProfesor     uuid.UUID `json:"id_profesor"`
	IDMateria      uuid.UUID `json:"id_materia"`
	IDGrupo        uuid.UUID `json:"id_grupo"`
	AnioEscolar    string    `json:"anio_escolar"`
	HorasSemanales int       `json:"horas_semanales"`
	CreatedAt      time.Time `json:"created_at"`
}
