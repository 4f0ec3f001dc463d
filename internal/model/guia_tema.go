package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	PlaceholderTituloSesion    = "Sin título"
	PlaceholderContenidoSesion = "No especificado"
)

// GuiaTema мастер-гид учителя по теме, один на пару (profesor, tema)
type GuiaTema struct {
	ID                 uuid.UUID       `json:"id"`
	IDProfesor         uuid.UUID       `json:"id_profesor"`
	IDTema             uuid.UUID       `json:"id_tema"`
	Contenido          string          `json:"contenido"`
	Objetivos          string          `json:"objetivos"`
	EstructuraSesiones json.RawMessage `json:"estructura_sesiones"`
	TotalSesiones      int             `json:"total_sesiones"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// SesionPlan элемент estructura_sesiones
type SesionPlan struct {
	Numero         int    `json:"numero"`
	Titulo         string `json:"titulo"`
	ContenidoClave string `json:"contenido_clave"`
}

// Sesiones разбирает estructura_sesiones, пустая структура -> пустой список
func (g *GuiaTema) Sesiones() ([]SesionPlan, error) {
	if len(g.EstructuraSesiones) == 0 || string(g.EstructuraSesiones) == "null" {
		return nil, nil
	}
	var sesiones []SesionPlan
	if err := json.Unmarshal(g.EstructuraSesiones, &sesiones); err != nil {
		return nil, err
	}
	return sesiones, nil
}

// FindSesion ищет план сессии по номеру; если нет, возвращает заглушку и false
func (g *GuiaTema) FindSesion(numero int) (SesionPlan, bool) {
	sesiones, err := g.Sesiones()
	if err == nil {
		for _, s := range sesiones {
			if s.Numero == numero {
				if s.Titulo == "" {
					s.Titulo = PlaceholderTituloSesion
				}
				if s.ContenidoClave == "" {
					s.ContenidoClave = PlaceholderContenidoSesion
				}
				return s, true
			}
		}
	}
	return SesionPlan{
		Numero:         numero,
		Titulo:         PlaceholderTituloSesion,
		ContenidoClave: PlaceholderContenidoSesion,
	}, false
}

// BloqueActividad блок занятия с длительностью
type BloqueActividad struct {
	DuracionMinutos int      `json:"duracion_minutos"`
	Descripcion     string   `json:"descripcion"`
	Actividades     []string `json:"actividades,omitempty"`
}

// GuiaSesion ответ ИИ при адаптации мастер-гида к конкретной сессии
type GuiaSesion struct {
	Titulo      string   `json:"titulo,omitempty"`
	Objetivos   []string `json:"objetivos"`
	Actividades struct {
		Apertura   BloqueActividad `json:"apertura"`
		Desarrollo BloqueActividad `json:"desarrollo"`
		Cierre     BloqueActividad `json:"cierre"`
	} `json:"actividades"`
	Recursos      []string `json:"recursos"`
	PreguntasGuia []string `json:"preguntas_guia"`
	Evaluacion    string   `json:"evaluacion"`
}
