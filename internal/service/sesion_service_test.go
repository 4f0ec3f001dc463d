package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Freeeeeet/aula_backend/internal/ai"
	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sesionJSON = "```json\n" + `{
  "titulo": "Fracciones equivalentes",
  "objetivos": ["Reconocer fracciones equivalentes"],
  "actividades": {
    "apertura":   {"duracion_minutos": 10, "descripcion": "Lluvia de ideas"},
    "desarrollo": {"duracion_minutos": 25, "descripcion": "Trabajo con tiras"},
    "cierre":     {"duracion_minutos": 10, "descripcion": "Ticket de salida"}
  },
  "recursos": ["Tiras de papel"],
  "preguntas_guia": ["¿Qué es una fracción?"],
  "evaluacion": "Ticket de salida"
}` + "\n```"

func addGuiaTema(f *fixture, estructura string) *model.GuiaTema {
	return f.db.AddGuiaTema(model.GuiaTema{
		IDProfesor:         f.profesor.ID,
		IDTema:             f.tema.ID,
		Contenido:          "Secuencia de fracciones con material concreto",
		Objetivos:          "Comprender fracciones",
		EstructuraSesiones: json.RawMessage(estructura),
		TotalSesiones:      2,
	})
}

func TestProgramarSesion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ai.text = sesionJSON
	guia := addGuiaTema(f, `[{"numero":1,"titulo":"Qué es una fracción","contenido_clave":"Partes de un todo"},{"numero":2,"titulo":"Equivalencias","contenido_clave":"Amplificar y simplificar"}]`)

	res, err := f.sesionService().ProgramarSesion(ctx, f.profesor, ProgramarSesionInput{
		IDTema:          f.tema.ID,
		IDGrupo:         f.grupo.ID,
		NumeroSesion:    2,
		DuracionMinutos: 45,
	})
	require.NoError(t, err)

	assert.Equal(t, "Equivalencias", res.Sesion.Titulo)
	assert.Equal(t, model.EstadoGuiaAprobada, res.Clase.Estado)
	require.NotNil(t, res.Clase.IDGuiaTema)
	assert.Equal(t, guia.ID, *res.Clase.IDGuiaTema)
	assert.Contains(t, f.ai.lastUser, "Amplificar y simplificar")
	assert.Contains(t, f.ai.lastUser, "3°A")
	assert.Equal(t, 1, f.tx.Calls)

	// версия доступна по id_guia_version_actual сразу после сохранения
	stored := f.db.Clase(res.Clase.ID)
	require.NotNil(t, stored.IDGuiaVersionActual)
	version, err := f.versiones.GetByID(ctx, *stored.IDGuiaVersionActual)
	require.NoError(t, err)
	require.NotNil(t, version)
	assert.True(t, version.EsFinal)
	assert.True(t, version.GeneradaIA)
	assert.Equal(t, res.Clase.ID, version.IDClase)

	var guiaSesion model.GuiaSesion
	require.NoError(t, json.Unmarshal(version.Contenido, &guiaSesion))
	assert.Equal(t, 25, guiaSesion.Actividades.Desarrollo.DuracionMinutos)
	assert.Equal(t, []string{"Tiras de papel"}, guiaSesion.Recursos)
}

func TestProgramarSesionPlaceholders(t *testing.T) {
	f := newFixture(t)
	f.ai.text = sesionJSON
	addGuiaTema(f, `[{"numero":1,"titulo":"Qué es una fracción","contenido_clave":"Partes de un todo"}]`)

	res, err := f.sesionService().ProgramarSesion(context.Background(), f.profesor, ProgramarSesionInput{
		IDTema:       f.tema.ID,
		IDGrupo:      f.grupo.ID,
		NumeroSesion: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, model.PlaceholderTituloSesion, res.Sesion.Titulo)
	assert.Equal(t, model.PlaceholderContenidoSesion, res.Sesion.ContenidoClave)
	assert.Contains(t, f.ai.lastUser, model.PlaceholderTituloSesion)
	assert.Equal(t, defaultDuracionMinutos, res.Clase.DuracionMinutos)
}

func TestProgramarSesionWithoutGuiaTema(t *testing.T) {
	f := newFixture(t)

	_, err := f.sesionService().ProgramarSesion(context.Background(), f.profesor, ProgramarSesionInput{
		IDTema:       f.tema.ID,
		IDGrupo:      f.grupo.ID,
		NumeroSesion: 1,
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "guía maestra")
	assert.Zero(t, f.ai.calls)
}

func TestProgramarSesionMalformedAIResponse(t *testing.T) {
	f := newFixture(t)
	f.ai.text = "Lo siento, no puedo ayudarte"
	addGuiaTema(f, `[]`)

	_, err := f.sesionService().ProgramarSesion(context.Background(), f.profesor, ProgramarSesionInput{
		IDTema:       f.tema.ID,
		IDGrupo:      f.grupo.ID,
		NumeroSesion: 1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrMalformedJSON)
	assert.False(t, IsNotFound(err))
	assert.Empty(t, f.db.Clases())
}

func TestProgramarSesionStoresAIReplyVerbatim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reply := `{"titulo":"Fracciones","evaluacion":{"tipo":"formativa","instrumento":"rúbrica"},"adaptaciones":["dislexia","TDAH"]}`
	f.ai.text = "```json\n" + reply + "\n```"
	addGuiaTema(f, `[{"numero":1,"titulo":"Qué es una fracción","contenido_clave":"Partes de un todo"}]`)

	res, err := f.sesionService().ProgramarSesion(ctx, f.profesor, ProgramarSesionInput{
		IDTema:       f.tema.ID,
		IDGrupo:      f.grupo.ID,
		NumeroSesion: 1,
	})
	require.NoError(t, err)
	// evaluacion объект, в типизированный вид не ложится
	assert.Nil(t, res.Guia)
	assert.Equal(t, model.EstadoGuiaAprobada, res.Clase.Estado)

	require.NotNil(t, res.GuiaVersion)
	assert.JSONEq(t, reply, string(res.GuiaVersion.Contenido))

	stored := f.db.Clase(res.Clase.ID)
	require.NotNil(t, stored.IDGuiaVersionActual)
	version, err := f.versiones.GetByID(ctx, *stored.IDGuiaVersionActual)
	require.NoError(t, err)
	require.NotNil(t, version)

	var contenido map[string]any
	require.NoError(t, json.Unmarshal(version.Contenido, &contenido))
	assert.Equal(t, []any{"dislexia", "TDAH"}, contenido["adaptaciones"])
	assert.Equal(t, map[string]any{"tipo": "formativa", "instrumento": "rúbrica"}, contenido["evaluacion"])
}

func TestProgramarSesionKeepsUnknownKeys(t *testing.T) {
	f := newFixture(t)
	f.ai.text = `{"titulo":"","recursos":["Tiras"],"adaptaciones":["dislexia"]}`
	addGuiaTema(f, `[{"numero":1,"titulo":"Qué es una fracción","contenido_clave":"Partes de un todo"}]`)

	res, err := f.sesionService().ProgramarSesion(context.Background(), f.profesor, ProgramarSesionInput{
		IDTema:       f.tema.ID,
		IDGrupo:      f.grupo.ID,
		NumeroSesion: 1,
	})
	require.NoError(t, err)

	// заголовок подставляется только в ответ, сохранённый JSON не трогается
	require.NotNil(t, res.Guia)
	assert.Equal(t, "Qué es una fracción", res.Guia.Titulo)
	assert.Equal(t, []string{"Tiras"}, res.Guia.Recursos)
	assert.JSONEq(t, f.ai.text, string(res.GuiaVersion.Contenido))
}

func TestProgramarSesionNotifiesLinkedProfesor(t *testing.T) {
	f := newFixture(t)
	f.ai.text = sesionJSON
	addGuiaTema(f, `[]`)
	f.profesor.TelegramChatID = ptr(int64(4242))

	_, err := f.sesionService().ProgramarSesion(context.Background(), f.profesor, ProgramarSesionInput{
		IDTema:       f.tema.ID,
		IDGrupo:      f.grupo.ID,
		NumeroSesion: 1,
	})
	require.NoError(t, err)

	require.Len(t, f.recorder.Messages, 1)
	assert.Equal(t, int64(4242), f.recorder.Messages[0].ChatID)
	assert.Contains(t, f.recorder.Messages[0].Text, "Fracciones")
}
