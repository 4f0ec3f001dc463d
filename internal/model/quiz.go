package model

import (
	"time"

	"github.com/google/uuid"
)

type QuizTipo string

const (
	QuizPre  QuizTipo = "pre"
	QuizPost QuizTipo = "post"
)

type Quiz struct {
	ID        uuid.UUID `json:"id"`
	IDClase   uuid.UUID `json:"id_clase"`
	Tipo      QuizTipo  `json:"tipo"`
	Titulo    string    `json:"titulo"`
	Estado    string    `json:"estado"`
	CreatedAt time.Time `json:"created_at"`
}

// ResultadoClase результат ученика по квизу
type ResultadoClase struct {
	ID        uuid.UUID `json:"id"`
	IDClase   uuid.UUID `json:"id_clase"`
	IDQuiz    uuid.UUID `json:"id_quiz"`
	IDAlumno  uuid.UUID `json:"id_alumno"`
	Tipo      QuizTipo  `json:"tipo"`
	Puntaje   float64   `json:"puntaje"`
	CreatedAt time.Time `json:"created_at"`
}
