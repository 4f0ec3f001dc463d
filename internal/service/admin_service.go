package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AsignacionDetalle назначение с именами для таблицы администратора
type AsignacionDetalle struct {
	*model.Asignacion
	Profesor string `json:"profesor"`
	Materia  string `json:"materia"`
	Grado    string `json:"grado"`
	Grupo    string `json:"grupo"`
}

// CargaProfesor нагрузка учителя за учебный год; без назначений AnioEscolar пустой
type CargaProfesor struct {
	IDProfesor     uuid.UUID `json:"id_profesor"`
	Profesor       string    `json:"profesor"`
	AnioEscolar    string    `json:"anio_escolar"`
	HorasSemanales int       `json:"horas_semanales"`
	Excede         bool      `json:"excede"`
}

type AsignacionesAdmin struct {
	Asignaciones []AsignacionDetalle `json:"asignaciones"`
	Profesores   []*model.Profesor   `json:"profesores"`
	Materias     []*model.Materia    `json:"materias"`
	Grupos       []*model.Grupo      `json:"grupos"`
	Carga        []CargaProfesor     `json:"carga"`
}

type MateriaProgreso struct {
	*model.Materia
	Temas            int     `json:"temas"`
	TemasCompletados int     `json:"temas_completados"`
	Progreso         float64 `json:"progreso"`
}

type PlanProgreso struct {
	*model.PlanAnual
	Materias         []MateriaProgreso `json:"materias"`
	TotalMaterias    int               `json:"total_materias"`
	TotalTemas       int               `json:"total_temas"`
	TemasCompletados int               `json:"temas_completados"`
	Progreso         float64           `json:"progreso"`
}

// AdminService отчёты администратора; роль проверяется на транспортном уровне
type AdminService struct {
	profesorRepo   ProfesorRepository
	academicoRepo  AcademicoRepository
	asignacionRepo AsignacionRepository
	claseRepo      ClaseRepository
	logger         *zap.Logger
}

func NewAdminService(
	profesorRepo ProfesorRepository,
	academicoRepo AcademicoRepository,
	asignacionRepo AsignacionRepository,
	claseRepo ClaseRepository,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		profesorRepo:   profesorRepo,
		academicoRepo:  academicoRepo,
		asignacionRepo: asignacionRepo,
		claseRepo:      claseRepo,
		logger:         logger,
	}
}

// Asignaciones все назначения со справочниками, запросы последовательные
func (s *AdminService) Asignaciones(ctx context.Context) (*AsignacionesAdmin, error) {
	asignaciones, err := s.asignacionRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list asignaciones: %w", err)
	}
	profesores, err := s.profesorRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profesores: %w", err)
	}
	materias, err := s.academicoRepo.ListMaterias(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materias: %w", err)
	}
	grupos, err := s.academicoRepo.ListGrupos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list grupos: %w", err)
	}

	profesorByID := make(map[uuid.UUID]*model.Profesor, len(profesores))
	for _, p := range profesores {
		profesorByID[p.ID] = p
	}
	materiaByID := make(map[uuid.UUID]*model.Materia, len(materias))
	for _, m := range materias {
		materiaByID[m.ID] = m
	}
	grupoByID := make(map[uuid.UUID]*model.Grupo, len(grupos))
	for _, g := range grupos {
		grupoByID[g.ID] = g
	}

	type cargaKey struct {
		profesor uuid.UUID
		anio     string
	}
	horas := make(map[cargaKey]int)
	anios := make(map[uuid.UUID][]string)
	detalles := make([]AsignacionDetalle, 0, len(asignaciones))
	for _, a := range asignaciones {
		d := AsignacionDetalle{Asignacion: a}
		if p, ok := profesorByID[a.IDProfesor]; ok {
			d.Profesor = p.NombreCompleto()
		}
		if m, ok := materiaByID[a.IDMateria]; ok {
			d.Materia = m.Nombre
			if m.Plan != nil {
				d.Grado = m.Plan.Grado
			}
		}
		if g, ok := grupoByID[a.IDGrupo]; ok {
			d.Grupo = g.Nombre
		}
		key := cargaKey{profesor: a.IDProfesor, anio: a.AnioEscolar}
		if _, seen := horas[key]; !seen {
			anios[a.IDProfesor] = append(anios[a.IDProfesor], a.AnioEscolar)
		}
		horas[key] += a.HorasSemanales
		detalles = append(detalles, d)
	}

	carga := make([]CargaProfesor, 0, len(profesores))
	for _, p := range profesores {
		years := anios[p.ID]
		if len(years) == 0 {
			carga = append(carga, CargaProfesor{IDProfesor: p.ID, Profesor: p.NombreCompleto()})
			continue
		}
		sort.Strings(years)
		for _, anio := range years {
			h := horas[cargaKey{profesor: p.ID, anio: anio}]
			carga = append(carga, CargaProfesor{
				IDProfesor:     p.ID,
				Profesor:       p.NombreCompleto(),
				AnioEscolar:    anio,
				HorasSemanales: h,
				Excede:         h > model.MaxHorasSemanales,
			})
		}
	}

	return &AsignacionesAdmin{
		Asignaciones: detalles,
		Profesores:   profesores,
		Materias:     materias,
		Grupos:       grupos,
		Carga:        carga,
	}, nil
}

// PlanAnual планы с количеством предметов и тем и долей тем с завершённым занятием
func (s *AdminService) PlanAnual(ctx context.Context) ([]PlanProgreso, error) {
	planes, err := s.academicoRepo.ListPlanes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list planes: %w", err)
	}
	materias, err := s.academicoRepo.ListMaterias(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materias: %w", err)
	}
	temas, err := s.academicoRepo.ListTemas(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list temas: %w", err)
	}
	completadas, err := s.claseRepo.CompletedTemaIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list completed temas: %w", err)
	}

	done := make(map[uuid.UUID]struct{}, len(completadas))
	for _, id := range completadas {
		done[id] = struct{}{}
	}

	type counts struct{ total, completados int }
	porMateria := make(map[uuid.UUID]*counts)
	for _, t := range temas {
		ct, ok := porMateria[t.IDMateria]
		if !ok {
			ct = &counts{}
			porMateria[t.IDMateria] = ct
		}
		ct.total++
		if _, ok := done[t.ID]; ok {
			ct.completados++
		}
	}

	materiasPorPlan := make(map[uuid.UUID][]MateriaProgreso)
	for _, m := range materias {
		mp := MateriaProgreso{Materia: m}
		if ct, ok := porMateria[m.ID]; ok {
			mp.Temas = ct.total
			mp.TemasCompletados = ct.completados
		}
		mp.Progreso = percent(mp.TemasCompletados, mp.Temas)
		materiasPorPlan[m.IDPlanAnual] = append(materiasPorPlan[m.IDPlanAnual], mp)
	}

	result := make([]PlanProgreso, 0, len(planes))
	for _, p := range planes {
		pp := PlanProgreso{PlanAnual: p, Materias: materiasPorPlan[p.ID]}
		if pp.Materias == nil {
			pp.Materias = []MateriaProgreso{}
		}
		pp.TotalMaterias = len(pp.Materias)
		for _, mp := range pp.Materias {
			pp.TotalTemas += mp.Temas
			pp.TemasCompletados += mp.TemasCompletados
		}
		pp.Progreso = percent(pp.TemasCompletados, pp.TotalTemas)
		result = append(result, pp)
	}

	return result, nil
}
