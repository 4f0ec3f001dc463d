package inmem

import (
	"context"
	"sort"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
)

type AcademicoRepository struct {
	db *DB
}

func NewAcademicoRepository(db *DB) *AcademicoRepository {
	return &AcademicoRepository{db: db}
}

func (r *AcademicoRepository) ListPlanes(_ context.Context) ([]*model.PlanAnual, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	list := make([]*model.PlanAnual, 0, len(r.db.planes))
	for _, p := range r.db.planes {
		cp := *p
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Grado < list[j].Grado })
	return list, nil
}

// materia копия предмета с подставленным планом; вызывать под блокировкой
func (r *AcademicoRepository) materia(m *model.Materia) *model.Materia {
	cp := *m
	if p, ok := r.db.planes[m.IDPlanAnual]; ok {
		pc := *p
		cp.Plan = &pc
	}
	return &cp
}

func (r *AcademicoRepository) GetMateria(_ context.Context, id uuid.UUID) (*model.Materia, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	m, ok := r.db.materias[id]
	if !ok {
		return nil, nil
	}
	// как и JOIN в SQL: предмет без плана не находится
	if _, ok := r.db.planes[m.IDPlanAnual]; !ok {
		return nil, nil
	}
	return r.materia(m), nil
}

func (r *AcademicoRepository) ListMaterias(_ context.Context) ([]*model.Materia, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	list := make([]*model.Materia, 0, len(r.db.materias))
	for _, m := range r.db.materias {
		list = append(list, r.materia(m))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Nombre < list[j].Nombre })
	return list, nil
}

func (r *AcademicoRepository) GetTema(_ context.Context, id uuid.UUID) (*model.Tema, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	if t, ok := r.db.temas[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *AcademicoRepository) ListTemas(_ context.Context, materiaIDs []uuid.UUID) ([]*model.Tema, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	var allowed map[uuid.UUID]bool
	if materiaIDs != nil {
		allowed = make(map[uuid.UUID]bool, len(materiaIDs))
		for _, id := range materiaIDs {
			allowed[id] = true
		}
	}

	list := make([]*model.Tema, 0, len(r.db.temas))
	for _, t := range r.db.temas {
		if allowed != nil && !allowed[t.IDMateria] {
			continue
		}
		cp := *t
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].IDMateria != list[j].IDMateria {
			return list[i].IDMateria.String() < list[j].IDMateria.String()
		}
		return list[i].Orden < list[j].Orden
	})
	return list, nil
}

func (r *AcademicoRepository) GetGrupo(_ context.Context, id uuid.UUID) (*model.Grupo, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	if g, ok := r.db.grupos[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (r *AcademicoRepository) ListGrupos(_ context.Context) ([]*model.Grupo, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	list := make([]*model.Grupo, 0, len(r.db.grupos))
	for _, g := range r.db.grupos {
		cp := *g
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Nombre < list[j].Nombre })
	return list, nil
}

type AsignacionRepository struct {
	db *DB
}

func NewAsignacionRepository(db *DB) *AsignacionRepository {
	return &AsignacionRepository{db: db}
}

func (r *AsignacionRepository) Create(_ context.Context, a *model.Asignacion) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	a.ID = newID(a.ID)
	a.CreatedAt = r.db.now()
	cp := *a
	r.db.asignaciones[a.ID] = &cp
	return nil
}

func (r *AsignacionRepository) Update(_ context.Context, a *model.Asignacion) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	orig, ok := r.db.asignaciones[a.ID]
	if !ok {
		return nil
	}
	a.CreatedAt = orig.CreatedAt
	cp := *a
	r.db.asignaciones[a.ID] = &cp
	return nil
}

func (r *AsignacionRepository) FindDuplicate(_ context.Context, profesorID, materiaID, grupoID uuid.UUID, anio string, excludeID *uuid.UUID) (*model.Asignacion, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	for _, a := range r.db.asignaciones {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.IDProfesor == profesorID && a.IDMateria == materiaID && a.IDGrupo == grupoID && a.AnioEscolar == anio {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *AsignacionRepository) SumHoras(_ context.Context, profesorID uuid.UUID, anio string, excludeID *uuid.UUID) (int, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	total := 0
	for _, a := range r.db.asignaciones {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.IDProfesor == profesorID && a.AnioEscolar == anio {
			total += a.HorasSemanales
		}
	}
	return total, nil
}

func (r *AsignacionRepository) List(_ context.Context, profesorID *uuid.UUID) ([]*model.Asignacion, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	list := make([]*model.Asignacion, 0, len(r.db.asignaciones))
	for _, a := range r.db.asignaciones {
		if profesorID != nil && a.IDProfesor != *profesorID {
			continue
		}
		cp := *a
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}
