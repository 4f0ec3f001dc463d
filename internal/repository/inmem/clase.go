package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
)

type ClaseRepository struct {
	db *DB
}

func NewClaseRepository(db *DB) *ClaseRepository {
	return &ClaseRepository{db: db}
}

func (r *ClaseRepository) Create(_ context.Context, clase *model.Clase) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	if clase.Estado == "" {
		clase.Estado = model.EstadoBorrador
	}
	clase.ID = newID(clase.ID)
	clase.CreatedAt = r.db.now()
	clase.UpdatedAt = clase.CreatedAt
	cp := *clase
	cp.Tema, cp.Grupo = nil, nil
	r.db.clases[clase.ID] = &cp
	return nil
}

func (r *ClaseRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Clase, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	if c, ok := r.db.clases[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *ClaseRepository) LatestCompleted(_ context.Context, profesorID, temaID, grupoID uuid.UUID) (*model.Clase, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	var latest *model.Clase
	for _, c := range r.db.clases {
		if c.IDProfesor != profesorID || c.IDTema != temaID || c.IDGrupo != grupoID || c.Estado != model.EstadoCompletada {
			continue
		}
		if latest == nil || executedAfter(c, latest) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// executedAfter порядок fecha_ejecucion DESC NULLS LAST
func executedAfter(a, b *model.Clase) bool {
	switch {
	case a.FechaEjecucion == nil:
		return false
	case b.FechaEjecucion == nil:
		return true
	default:
		return a.FechaEjecucion.After(*b.FechaEjecucion)
	}
}

func (r *ClaseRepository) SetGuiaVersion(_ context.Context, claseID, versionID uuid.UUID) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	if c, ok := r.db.clases[claseID]; ok {
		c.IDGuiaVersionActual = &versionID
		c.UpdatedAt = r.db.now()
	}
	return nil
}

func (r *ClaseRepository) UpdateEstado(_ context.Context, claseID uuid.UUID, estado model.EstadoClase, fechaEjecucion *time.Time, observaciones *string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	c, ok := r.db.clases[claseID]
	if !ok {
		return nil
	}
	c.Estado = estado
	if fechaEjecucion != nil {
		c.FechaEjecucion = fechaEjecucion
	}
	if observaciones != nil {
		c.Observaciones = observaciones
	}
	c.UpdatedAt = r.db.now()
	return nil
}

func (r *ClaseRepository) ListByProfesor(_ context.Context, profesorID uuid.UUID) ([]*model.Clase, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	list := make([]*model.Clase, 0)
	for _, c := range r.db.clases {
		if c.IDProfesor != profesorID {
			continue
		}
		cp := *c
		if t, ok := r.db.temas[c.IDTema]; ok {
			tc := *t
			cp.Tema = &tc
		}
		if g, ok := r.db.grupos[c.IDGrupo]; ok {
			gc := *g
			cp.Grupo = &gc
		}
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *ClaseRepository) CompletedTemaIDs(_ context.Context) ([]uuid.UUID, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, c := range r.db.clases {
		if c.Estado == model.EstadoCompletada && !seen[c.IDTema] {
			seen[c.IDTema] = true
			ids = append(ids, c.IDTema)
		}
	}
	return ids, nil
}

type GuiaVersionRepository struct {
	db *DB
}

func NewGuiaVersionRepository(db *DB) *GuiaVersionRepository {
	return &GuiaVersionRepository{db: db}
}

func (r *GuiaVersionRepository) Create(_ context.Context, version *model.GuiaVersion) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	last := 0
	for _, v := range r.db.versiones {
		if v.IDClase == version.IDClase && v.VersionNumero > last {
			last = v.VersionNumero
		}
	}
	version.ID = newID(version.ID)
	version.VersionNumero = last + 1
	version.CreatedAt = r.db.now()
	cp := *version
	r.db.versiones[version.ID] = &cp
	return nil
}

func (r *GuiaVersionRepository) GetByID(_ context.Context, id uuid.UUID) (*model.GuiaVersion, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	if v, ok := r.db.versiones[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (r *GuiaVersionRepository) MarkFinal(_ context.Context, id uuid.UUID) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	if v, ok := r.db.versiones[id]; ok {
		v.EsFinal = true
	}
	return nil
}

type GuiaTemaRepository struct {
	db *DB
}

func NewGuiaTemaRepository(db *DB) *GuiaTemaRepository {
	return &GuiaTemaRepository{db: db}
}

func (r *GuiaTemaRepository) Create(_ context.Context, guia *model.GuiaTema) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	guia.ID = newID(guia.ID)
	guia.CreatedAt = r.db.now()
	guia.UpdatedAt = guia.CreatedAt
	cp := *guia
	r.db.guiasTema[guia.ID] = &cp
	return nil
}

func (r *GuiaTemaRepository) GetByProfesorTema(_ context.Context, profesorID, temaID uuid.UUID) (*model.GuiaTema, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	for _, g := range r.db.guiasTema {
		if g.IDProfesor == profesorID && g.IDTema == temaID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *GuiaTemaRepository) Update(_ context.Context, guia *model.GuiaTema) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	if _, ok := r.db.guiasTema[guia.ID]; !ok {
		return nil
	}
	guia.UpdatedAt = r.db.now()
	cp := *guia
	r.db.guiasTema[guia.ID] = &cp
	return nil
}

func (r *GuiaTemaRepository) ListByProfesor(_ context.Context, profesorID uuid.UUID) ([]*model.GuiaTema, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	list := make([]*model.GuiaTema, 0)
	for _, g := range r.db.guiasTema {
		if g.IDProfesor == profesorID {
			cp := *g
			list = append(list, &cp)
		}
	}
	return list, nil
}

// RecomendacionRepository; Err имитирует сбой вставки
type RecomendacionRepository struct {
	db  *DB
	Err error
}

func NewRecomendacionRepository(db *DB) *RecomendacionRepository {
	return &RecomendacionRepository{db: db}
}

func (r *RecomendacionRepository) Create(_ context.Context, rec *model.Recomendacion) error {
	if r.Err != nil {
		return r.Err
	}
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	if rec.Tipo == "" {
		rec.Tipo = model.RecomendacionContinuidad
	}
	rec.ID = newID(rec.ID)
	rec.CreatedAt = r.db.now()
	cp := *rec
	r.db.recomendaciones[rec.ID] = &cp
	return nil
}

func (r *RecomendacionRepository) ListByClase(_ context.Context, claseID uuid.UUID) ([]*model.Recomendacion, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	list := make([]*model.Recomendacion, 0)
	for _, rec := range r.db.recomendaciones {
		if rec.IDClase == claseID {
			cp := *rec
			list = append(list, &cp)
		}
	}
	return list, nil
}

type ResultadoRepository struct {
	db *DB
}

func NewResultadoRepository(db *DB) *ResultadoRepository {
	return &ResultadoRepository{db: db}
}

// ownedBy принадлежит ли занятие учителю; вызывать под блокировкой
func (r *ResultadoRepository) ownedBy(claseID, profesorID uuid.UUID) bool {
	c, ok := r.db.clases[claseID]
	return ok && c.IDProfesor == profesorID
}

func (r *ResultadoRepository) ListQuizzesByProfesor(_ context.Context, profesorID uuid.UUID) ([]*model.Quiz, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	list := make([]*model.Quiz, 0)
	for _, q := range r.db.quizzes {
		if r.ownedBy(q.IDClase, profesorID) {
			cp := *q
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *ResultadoRepository) ListByProfesor(_ context.Context, profesorID uuid.UUID) ([]*model.ResultadoClase, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	list := make([]*model.ResultadoClase, 0)
	for _, res := range r.db.resultados {
		if r.ownedBy(res.IDClase, profesorID) {
			cp := *res
			list = append(list, &cp)
		}
	}
	return list, nil
}
