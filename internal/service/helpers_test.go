package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/ai"
	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/notify"
	"github.com/Freeeeeet/aula_backend/internal/repository/inmem"
	"go.uber.org/zap"
)

var (
	_ TxRunner                = (*inmem.TxRunner)(nil)
	_ ProfesorRepository      = (*inmem.ProfesorRepository)(nil)
	_ RoleRepository          = (*inmem.RoleRepository)(nil)
	_ AcademicoRepository     = (*inmem.AcademicoRepository)(nil)
	_ AsignacionRepository    = (*inmem.AsignacionRepository)(nil)
	_ ClaseRepository         = (*inmem.ClaseRepository)(nil)
	_ GuiaVersionRepository   = (*inmem.GuiaVersionRepository)(nil)
	_ GuiaTemaRepository      = (*inmem.GuiaTemaRepository)(nil)
	_ RecomendacionRepository = (*inmem.RecomendacionRepository)(nil)
	_ ResultadoRepository     = (*inmem.ResultadoRepository)(nil)
	_ TelegramLinkRepository  = (*inmem.TelegramLinkRepository)(nil)
	_ AIClient                = (*ai.Client)(nil)
)

// fakeAI отвечает заранее заданным текстом и запоминает последний запрос
type fakeAI struct {
	text       string
	err        error
	lastSystem string
	lastUser   string
	calls      int
}

func (f *fakeAI) GenerateText(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.lastSystem, f.lastUser = system, user
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeAI) GenerateJSON(_ context.Context, system, user string, out any) error {
	f.calls++
	f.lastSystem, f.lastUser = system, user
	if f.err != nil {
		return f.err
	}
	if err := json.Unmarshal([]byte(ai.ExtractJSONObject(f.text)), out); err != nil {
		return fmt.Errorf("%w: %w", ai.ErrMalformedJSON, err)
	}
	return nil
}

type fixture struct {
	db       *inmem.DB
	tx       *inmem.TxRunner
	ai       *fakeAI
	recorder *notify.Recorder

	profesores      *inmem.ProfesorRepository
	academico       *inmem.AcademicoRepository
	asignaciones    *inmem.AsignacionRepository
	clases          *inmem.ClaseRepository
	versiones       *inmem.GuiaVersionRepository
	guiasTema       *inmem.GuiaTemaRepository
	recomendaciones *inmem.RecomendacionRepository
	resultados      *inmem.ResultadoRepository

	profesor *model.Profesor
	plan     *model.PlanAnual
	materia  *model.Materia
	tema     *model.Tema
	grupo    *model.Grupo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := inmem.NewDB()
	f := &fixture{
		db:              db,
		tx:              &inmem.TxRunner{},
		ai:              &fakeAI{},
		recorder:        &notify.Recorder{},
		profesores:      inmem.NewProfesorRepository(db),
		academico:       inmem.NewAcademicoRepository(db),
		asignaciones:    inmem.NewAsignacionRepository(db),
		clases:          inmem.NewClaseRepository(db),
		versiones:       inmem.NewGuiaVersionRepository(db),
		guiasTema:       inmem.NewGuiaTemaRepository(db),
		recomendaciones: inmem.NewRecomendacionRepository(db),
		resultados:      inmem.NewResultadoRepository(db),
	}

	f.profesor = db.AddProfesor(model.Profesor{Nombre: "Ana", Apellidos: "Torres", Activo: true})
	f.plan = db.AddPlan(model.PlanAnual{Nombre: "Plan 3°", Grado: "3° Primaria", AnioEscolar: "2025", Activo: true})
	f.materia = db.AddMateria(model.Materia{IDPlanAnual: f.plan.ID, Nombre: "Matemáticas", HorasSemanales: 5})
	f.tema = db.AddTema(model.Tema{IDMateria: f.materia.ID, Nombre: "Fracciones", Orden: 1, SesionesEstimadas: 4})
	f.grupo = db.AddGrupo(model.Grupo{Nombre: "3°A", Grado: "3° Primaria", Seccion: "A", AnioEscolar: "2025", CantidadAlumnos: 28})

	return f
}

func (f *fixture) claseService() *ClaseService {
	return NewClaseService(f.tx, f.academico, f.clases, f.guiasTema, f.versiones, f.recomendaciones, f.ai, zap.NewNop())
}

func (f *fixture) sesionService() *SesionService {
	return NewSesionService(f.tx, f.academico, f.guiasTema, f.clases, f.versiones, f.ai, f.recorder, zap.NewNop())
}

func (f *fixture) asignacionService() *AsignacionService {
	return NewAsignacionService(f.profesores, f.academico, f.asignaciones, zap.NewNop())
}

func (f *fixture) guiaTemaService() *GuiaTemaService {
	return NewGuiaTemaService(f.academico, f.guiasTema, f.ai, zap.NewNop())
}

func (f *fixture) dashboardService(now time.Time) *DashboardService {
	s := NewDashboardService(f.academico, f.asignaciones, f.clases, f.guiasTema, f.resultados, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func (f *fixture) adminService() *AdminService {
	return NewAdminService(f.profesores, f.academico, f.asignaciones, f.clases, zap.NewNop())
}

func ptr[T any](v T) *T {
	return &v
}
