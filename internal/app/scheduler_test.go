package app

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/notify"
	"github.com/Freeeeeet/aula_backend/internal/repository/inmem"
	"github.com/Freeeeeet/aula_backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUntilNextRun(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{name: "before hour", now: time.Date(2025, 5, 5, 6, 30, 0, 0, loc), want: 30 * time.Minute},
		{name: "exactly at hour", now: time.Date(2025, 5, 5, 7, 0, 0, 0, loc), want: 24 * time.Hour},
		{name: "after hour", now: time.Date(2025, 5, 5, 8, 0, 0, 0, loc), want: 23 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, untilNextRun(tt.now, 7))
		})
	}
}

type digestFixture struct {
	db        *inmem.DB
	recorder  *notify.Recorder
	scheduler *Scheduler
	profesor  *model.Profesor
	tema      *model.Tema
	grupo     *model.Grupo
}

func newDigestFixture(t *testing.T, now time.Time) *digestFixture {
	t.Helper()

	db := inmem.NewDB()
	chatID := int64(4242)
	f := &digestFixture{db: db, recorder: &notify.Recorder{}}
	f.profesor = db.AddProfesor(model.Profesor{Nombre: "Ana", Apellidos: "Torres", Activo: true, TelegramChatID: &chatID})
	db.AddProfesor(model.Profesor{Nombre: "Sin", Apellidos: "Chat", Activo: true})

	plan := db.AddPlan(model.PlanAnual{Nombre: "Plan 3°", Grado: "3° Primaria"})
	materia := db.AddMateria(model.Materia{IDPlanAnual: plan.ID, Nombre: "Matemáticas"})
	f.tema = db.AddTema(model.Tema{IDMateria: materia.ID, Nombre: "Fracciones"})
	f.grupo = db.AddGrupo(model.Grupo{Nombre: "3°A", Grado: "3° Primaria"})

	dashboard := service.NewDashboardService(
		inmem.NewAcademicoRepository(db),
		inmem.NewAsignacionRepository(db),
		inmem.NewClaseRepository(db),
		inmem.NewGuiaTemaRepository(db),
		inmem.NewResultadoRepository(db),
		zap.NewNop(),
	)
	f.scheduler = NewScheduler(inmem.NewProfesorRepository(db), dashboard, f.recorder, 7, zap.NewNop())
	f.scheduler.now = func() time.Time { return now }
	return f
}

func (f *digestFixture) addClase(estado model.EstadoClase, at time.Time) {
	f.db.AddClase(model.Clase{
		IDTema:          f.tema.ID,
		IDGrupo:         f.grupo.ID,
		IDProfesor:      f.profesor.ID,
		Estado:          estado,
		FechaProgramada: &at,
		DuracionMinutos: 45,
	})
}

func TestSendDigestGroupsPendingLessons(t *testing.T) {
	tuesday := time.Date(2025, 5, 6, 7, 0, 0, 0, time.UTC)
	f := newDigestFixture(t, tuesday)
	f.addClase(model.EstadoBorrador, tuesday.Add(2*time.Hour))
	f.addClase(model.EstadoGuiaAprobada, tuesday.Add(26*time.Hour))
	f.addClase(model.EstadoCompletada, tuesday.Add(-24*time.Hour))

	f.scheduler.SendDigest(context.Background())

	require.Len(t, f.recorder.Messages, 1)
	msg := f.recorder.Messages[0]
	assert.Equal(t, int64(4242), msg.ChatID)
	assert.Nil(t, msg.Photo)
	assert.Contains(t, msg.Text, "Ana")
	assert.Contains(t, msg.Text, "Guías pendientes (1)")
	assert.Contains(t, msg.Text, "Evaluación previa pendiente (1)")
	assert.NotContains(t, msg.Text, "posterior")
	assert.Contains(t, msg.Text, "Fracciones · 3°A")
}

func TestSendDigestMondayAddsWeekImage(t *testing.T) {
	monday := time.Date(2025, 5, 5, 7, 0, 0, 0, time.UTC)
	f := newDigestFixture(t, monday)
	f.addClase(model.EstadoEnClase, monday.Add(3*time.Hour))

	f.scheduler.SendDigest(context.Background())

	require.Len(t, f.recorder.Messages, 2)
	assert.Contains(t, f.recorder.Messages[0].Text, "Evaluación posterior pendiente (1)")
	assert.NotEmpty(t, f.recorder.Messages[1].Photo)
}

func TestSendDigestSkipsWhenNothingPending(t *testing.T) {
	tuesday := time.Date(2025, 5, 6, 7, 0, 0, 0, time.UTC)
	f := newDigestFixture(t, tuesday)
	f.addClase(model.EstadoCompletada, tuesday.Add(-time.Hour))

	f.scheduler.SendDigest(context.Background())

	assert.Empty(t, f.recorder.Messages)
}

func TestFormatDigestTruncates(t *testing.T) {
	clases := make([]service.ClaseResumen, digestMaxPerCategory+3)
	for i := range clases {
		clases[i] = service.ClaseResumen{Tema: "Tema", Estado: model.EstadoBorrador}
	}

	text := formatDigest(&model.Profesor{Nombre: "Ana"}, []service.AlertaGrupo{
		{Categoria: model.CategoryGuiaPendiente, Clases: clases},
	})
	assert.Contains(t, text, "… y 3 más")
}

func TestStartDisabledWithoutNotifier(t *testing.T) {
	s := NewScheduler(nil, nil, notify.Nop{}, 7, zap.NewNop())
	s.Start(context.Background())
	s.Stop()
}
