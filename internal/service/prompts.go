package service

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/aula_backend/internal/model"
)

const systemPromptGuiaClase = `Eres un asistente pedagógico para docentes de educación básica.
Redactas guías de clase claras, estructuradas y aplicables en el aula, en español.`

const systemPromptSesion = `Eres un asistente pedagógico experto en planificación didáctica.
Adaptas la guía maestra de un tema a una sesión concreta.
Responde ÚNICAMENTE con un objeto JSON válido, sin texto adicional.`

const systemPromptEstructura = `Eres un asistente pedagógico experto en planificación didáctica.
Divides un tema en una secuencia de sesiones de clase.
Responde ÚNICAMENTE con un objeto JSON válido, sin texto adicional.`

// buildGuiaClasePrompt запрос на свободный текст гида занятия (generar-clase)
func buildGuiaClasePrompt(tema *model.Tema, grupo *model.Grupo, guia *model.GuiaTema, clase *model.Clase) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Genera una guía de clase para el tema \"%s\".\n", tema.Nombre)
	if tema.Descripcion != "" {
		fmt.Fprintf(&b, "Descripción del tema: %s\n", tema.Descripcion)
	}
	fmt.Fprintf(&b, "Grupo: %s (%s), %d alumnos.\n", grupo.Nombre, grupo.Grado, grupo.CantidadAlumnos)
	fmt.Fprintf(&b, "Duración de la clase: %d minutos.\n", clase.DuracionMinutos)

	if guia != nil && guia.Contenido != "" {
		fmt.Fprintf(&b, "\nGuía maestra del tema:\n%s\n", guia.Contenido)
	}
	if clase.NumeroSesion != nil && guia != nil {
		sesion, _ := guia.FindSesion(*clase.NumeroSesion)
		fmt.Fprintf(&b, "\nSesión %d: %s. Contenido clave: %s\n", sesion.Numero, sesion.Titulo, sesion.ContenidoClave)
	}

	b.WriteString("\nIncluye objetivos, actividades de inicio, desarrollo y cierre con tiempos, recursos, preguntas guía y forma de evaluación.")
	return b.String()
}

// buildSesionPrompt запрос на адаптацию мастер-гида к сессии (programar-sesion)
func buildSesionPrompt(tema *model.Tema, grupo *model.Grupo, guia *model.GuiaTema, sesion model.SesionPlan, duracion int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Tema: %s\n", tema.Nombre)
	fmt.Fprintf(&b, "Guía maestra del tema:\n%s\n", orDefault(guia.Contenido, model.PlaceholderContenidoSesion))
	if guia.Objetivos != "" {
		fmt.Fprintf(&b, "Objetivos generales: %s\n", guia.Objetivos)
	}
	fmt.Fprintf(&b, "\nSesión %d de %d: %s\n", sesion.Numero, guia.TotalSesiones, sesion.Titulo)
	fmt.Fprintf(&b, "Contenido clave de la sesión: %s\n", sesion.ContenidoClave)
	fmt.Fprintf(&b, "\nGrupo: %s, grado %s, sección %s, %d alumnos.\n", grupo.Nombre, grupo.Grado, orDefault(grupo.Seccion, "única"), grupo.CantidadAlumnos)
	fmt.Fprintf(&b, "Duración total: %d minutos.\n", duracion)

	b.WriteString(`
Devuelve un JSON con esta forma:
{
  "titulo": "string",
  "objetivos": ["string"],
  "actividades": {
    "apertura":   {"duracion_minutos": 0, "descripcion": "string", "actividades": ["string"]},
    "desarrollo": {"duracion_minutos": 0, "descripcion": "string", "actividades": ["string"]},
    "cierre":     {"duracion_minutos": 0, "descripcion": "string", "actividades": ["string"]}
  },
  "recursos": ["string"],
  "preguntas_guia": ["string"],
  "evaluacion": "string"
}
La suma de duraciones debe ser igual a la duración total.`)

	return b.String()
}

// buildEstructuraPrompt черновик структуры сессий для нового мастер-гида (iniciar-tema)
func buildEstructuraPrompt(tema *model.Tema, contenido string, total int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Tema: %s\n", tema.Nombre)
	if tema.Descripcion != "" {
		fmt.Fprintf(&b, "Descripción: %s\n", tema.Descripcion)
	}
	if contenido != "" {
		fmt.Fprintf(&b, "Guía del docente:\n%s\n", contenido)
	}
	fmt.Fprintf(&b, "\nDivide el tema en %d sesiones. Devuelve un JSON con la forma:\n", total)
	b.WriteString(`{"sesiones": [{"numero": 1, "titulo": "string", "contenido_clave": "string"}]}`)

	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
