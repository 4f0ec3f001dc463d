package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/ai"
	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCrearClaseWithoutPrevious(t *testing.T) {
	f := newFixture(t)

	res, err := f.claseService().CrearClase(context.Background(), f.profesor, CrearClaseInput{
		IDTema:  f.tema.ID,
		IDGrupo: f.grupo.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.EstadoBorrador, res.Clase.Estado)
	assert.Equal(t, defaultDuracionMinutos, res.Clase.DuracionMinutos)
	assert.Nil(t, res.ClaseAnterior)
	assert.Nil(t, res.Recomendacion)
	assert.Empty(t, f.db.Recomendaciones())
}

func TestCrearClaseLogsWithoutPrevious(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zap.InfoLevel)
	svc := NewClaseService(f.tx, f.academico, f.clases, f.guiasTema, f.versiones, f.recomendaciones, f.ai, zap.New(core))

	res, err := svc.CrearClase(context.Background(), f.profesor, CrearClaseInput{
		IDTema:  f.tema.ID,
		IDGrupo: f.grupo.ID,
	})
	require.NoError(t, err)
	require.Nil(t, res.Recomendacion)

	created := logs.FilterMessage("Clase created").All()
	require.Len(t, created, 1)
	assert.Equal(t, res.Clase.ID.String(), created[0].ContextMap()["clase_id"])
}

func TestCrearClaseWithPrevious(t *testing.T) {
	f := newFixture(t)
	ejecutada := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	older := f.db.AddClase(model.Clase{
		IDTema: f.tema.ID, IDGrupo: f.grupo.ID, IDProfesor: f.profesor.ID,
		Estado:         model.EstadoCompletada,
		FechaEjecucion: ptr(ejecutada.AddDate(0, 0, -7)),
		Observaciones:  ptr("Repasar denominadores"),
	})
	latest := f.db.AddClase(model.Clase{
		IDTema: f.tema.ID, IDGrupo: f.grupo.ID, IDProfesor: f.profesor.ID,
		Estado:         model.EstadoCompletada,
		FechaEjecucion: ptr(ejecutada),
		Observaciones:  ptr("Faltó tiempo para el cierre"),
	})
	// другая группа не учитывается
	f.db.AddClase(model.Clase{
		IDTema: f.tema.ID, IDGrupo: f.db.AddGrupo(model.Grupo{Nombre: "3°B", Grado: "3° Primaria"}).ID, IDProfesor: f.profesor.ID,
		Estado:         model.EstadoCompletada,
		FechaEjecucion: ptr(ejecutada.AddDate(0, 0, 1)),
	})

	res, err := f.claseService().CrearClase(context.Background(), f.profesor, CrearClaseInput{
		IDTema:  f.tema.ID,
		IDGrupo: f.grupo.ID,
	})
	require.NoError(t, err)

	require.NotNil(t, res.ClaseAnterior)
	assert.Equal(t, latest.ID, res.ClaseAnterior.ID)
	assert.NotEqual(t, older.ID, res.ClaseAnterior.ID)

	require.NotNil(t, res.Recomendacion)
	assert.Equal(t, latest.ID, res.Recomendacion.IDClaseAnterior)
	assert.Equal(t, res.Clase.ID, res.Recomendacion.IDClase)
	assert.Equal(t, "Faltó tiempo para el cierre", res.Recomendacion.Contenido)
}

func TestCrearClaseDefaultRecomendacion(t *testing.T) {
	f := newFixture(t)
	f.db.AddClase(model.Clase{
		IDTema: f.tema.ID, IDGrupo: f.grupo.ID, IDProfesor: f.profesor.ID,
		Estado:         model.EstadoCompletada,
		FechaEjecucion: ptr(time.Now().Add(-24 * time.Hour)),
	})

	res, err := f.claseService().CrearClase(context.Background(), f.profesor, CrearClaseInput{
		IDTema:  f.tema.ID,
		IDGrupo: f.grupo.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Recomendacion)
	assert.Equal(t, model.DefaultRecomendacion, res.Recomendacion.Contenido)
}

func TestCrearClaseRecomendacionFailureKeepsClase(t *testing.T) {
	f := newFixture(t)
	f.db.AddClase(model.Clase{
		IDTema: f.tema.ID, IDGrupo: f.grupo.ID, IDProfesor: f.profesor.ID,
		Estado: model.EstadoCompletada,
	})
	f.recomendaciones.Err = errors.New("insert failed")

	res, err := f.claseService().CrearClase(context.Background(), f.profesor, CrearClaseInput{
		IDTema:  f.tema.ID,
		IDGrupo: f.grupo.ID,
	})
	require.NoError(t, err)
	assert.NotNil(t, res.ClaseAnterior)
	assert.Nil(t, res.Recomendacion)
	assert.NotNil(t, f.db.Clase(res.Clase.ID))
}

func TestCrearClaseUnknownTema(t *testing.T) {
	f := newFixture(t)
	_, err := f.claseService().CrearClase(context.Background(), f.profesor, CrearClaseInput{
		IDTema:  uuid.New(),
		IDGrupo: f.grupo.ID,
	})
	assert.True(t, IsNotFound(err))
}

func TestGenerarGuia(t *testing.T) {
	f := newFixture(t)
	f.ai.text = "Objetivo: comparar fracciones"
	clase := f.db.AddClase(model.Clase{
		IDTema: f.tema.ID, IDGrupo: f.grupo.ID, IDProfesor: f.profesor.ID,
		Estado: model.EstadoBorrador, DuracionMinutos: 45,
	})

	version, err := f.claseService().GenerarGuia(context.Background(), f.profesor, clase.ID)
	require.NoError(t, err)

	assert.False(t, version.EsFinal)
	assert.True(t, version.GeneradaIA)
	assert.Equal(t, 1, version.VersionNumero)

	var contenido map[string]string
	require.NoError(t, json.Unmarshal(version.Contenido, &contenido))
	assert.Equal(t, "texto", contenido["formato"])
	assert.Equal(t, f.ai.text, contenido["texto"])

	stored := f.db.Clase(clase.ID)
	assert.Equal(t, model.EstadoEditandoGuia, stored.Estado)
	require.NotNil(t, stored.IDGuiaVersionActual)
	assert.Equal(t, version.ID, *stored.IDGuiaVersionActual)
	assert.Contains(t, f.ai.lastUser, "Fracciones")
}

func TestGenerarGuiaRestoresEstadoOnAIError(t *testing.T) {
	f := newFixture(t)
	f.ai.err = ai.ErrRateLimited
	clase := f.db.AddClase(model.Clase{
		IDTema: f.tema.ID, IDGrupo: f.grupo.ID, IDProfesor: f.profesor.ID,
		Estado: model.EstadoEditandoGuia,
	})

	_, err := f.claseService().GenerarGuia(context.Background(), f.profesor, clase.ID)
	assert.ErrorIs(t, err, ai.ErrRateLimited)
	assert.Equal(t, model.EstadoEditandoGuia, f.db.Clase(clase.ID).Estado)
}

func TestGenerarGuiaForeignClase(t *testing.T) {
	f := newFixture(t)
	otro := f.db.AddProfesor(model.Profesor{Nombre: "Otro", Activo: true})
	clase := f.db.AddClase(model.Clase{IDTema: f.tema.ID, IDGrupo: f.grupo.ID, IDProfesor: otro.ID})

	_, err := f.claseService().GenerarGuia(context.Background(), f.profesor, clase.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, f.ai.calls)
}

func TestValidarClase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ai.text = "guía"
	clase := f.db.AddClase(model.Clase{IDTema: f.tema.ID, IDGrupo: f.grupo.ID, IDProfesor: f.profesor.ID})
	svc := f.claseService()

	_, err := svc.ValidarClase(ctx, f.profesor, clase.ID)
	assert.True(t, IsNotFound(err))

	version, err := svc.GenerarGuia(ctx, f.profesor, clase.ID)
	require.NoError(t, err)

	validated, err := svc.ValidarClase(ctx, f.profesor, clase.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoGuiaAprobada, validated.Estado)

	stored, err := f.versiones.GetByID(ctx, version.ID)
	require.NoError(t, err)
	assert.True(t, stored.EsFinal)
}

func TestActualizarEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clase := f.db.AddClase(model.Clase{
		IDTema: f.tema.ID, IDGrupo: f.grupo.ID, IDProfesor: f.profesor.ID,
		Estado: model.EstadoBorrador,
	})
	svc := f.claseService()
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.ActualizarEstado(ctx, f.profesor, ActualizarEstadoInput{IDClase: clase.ID, Estado: "terminada"})
	var invalidErr *InvalidInputError
	assert.ErrorAs(t, err, &invalidErr)

	// переходы не ограничены: из borrador сразу в completada
	view, err := svc.ActualizarEstado(ctx, f.profesor, ActualizarEstadoInput{
		IDClase:       clase.ID,
		Estado:        string(model.EstadoCompletada),
		Observaciones: ptr("Buena participación"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StageCierre, view.Stage)
	assert.Equal(t, model.CategoryOtros, view.Categoria)

	stored := f.db.Clase(clase.ID)
	require.NotNil(t, stored.FechaEjecucion)
	assert.True(t, now.Equal(*stored.FechaEjecucion))
	assert.Equal(t, "Buena participación", *stored.Observaciones)

	got, err := svc.GetEstado(ctx, f.profesor, clase.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoCompletada, got.Estado)
}
