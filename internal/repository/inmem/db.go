// Package inmem хранилище в памяти с теми же интерфейсами, что и pgx-репозитории.
// Используется в тестах сервисов и HTTP-слоя
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
)

type DB struct {
	mutex sync.RWMutex

	profesores      map[uuid.UUID]*model.Profesor
	roles           map[uuid.UUID][]model.Role
	planes          map[uuid.UUID]*model.PlanAnual
	materias        map[uuid.UUID]*model.Materia
	temas           map[uuid.UUID]*model.Tema
	grupos          map[uuid.UUID]*model.Grupo
	asignaciones    map[uuid.UUID]*model.Asignacion
	guiasTema       map[uuid.UUID]*model.GuiaTema
	clases          map[uuid.UUID]*model.Clase
	versiones       map[uuid.UUID]*model.GuiaVersion
	recomendaciones map[uuid.UUID]*model.Recomendacion
	quizzes         map[uuid.UUID]*model.Quiz
	resultados      map[uuid.UUID]*model.ResultadoClase
	linkCodes       map[string]*model.TelegramLinkCode

	now func() time.Time
}

func NewDB() *DB {
	return &DB{
		profesores:      make(map[uuid.UUID]*model.Profesor),
		roles:           make(map[uuid.UUID][]model.Role),
		planes:          make(map[uuid.UUID]*model.PlanAnual),
		materias:        make(map[uuid.UUID]*model.Materia),
		temas:           make(map[uuid.UUID]*model.Tema),
		grupos:          make(map[uuid.UUID]*model.Grupo),
		asignaciones:    make(map[uuid.UUID]*model.Asignacion),
		guiasTema:       make(map[uuid.UUID]*model.GuiaTema),
		clases:          make(map[uuid.UUID]*model.Clase),
		versiones:       make(map[uuid.UUID]*model.GuiaVersion),
		recomendaciones: make(map[uuid.UUID]*model.Recomendacion),
		quizzes:         make(map[uuid.UUID]*model.Quiz),
		resultados:      make(map[uuid.UUID]*model.ResultadoClase),
		linkCodes:       make(map[string]*model.TelegramLinkCode),
		now:             time.Now,
	}
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// TxRunner выполняет fn без отката: изменения в памяти применяются сразу
type TxRunner struct {
	Calls int
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.Calls++
	return fn(ctx)
}

// Методы наполнения для тестов

func (db *DB) AddProfesor(p model.Profesor) *model.Profesor {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	p.ID = newID(p.ID)
	p.UserID = newID(p.UserID)
	db.profesores[p.ID] = &p
	return &p
}

func (db *DB) AddRole(userID uuid.UUID, role model.Role) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.roles[userID] = append(db.roles[userID], role)
}

func (db *DB) AddPlan(p model.PlanAnual) *model.PlanAnual {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	p.ID = newID(p.ID)
	db.planes[p.ID] = &p
	return &p
}

func (db *DB) AddMateria(m model.Materia) *model.Materia {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	m.ID = newID(m.ID)
	db.materias[m.ID] = &m
	return &m
}

func (db *DB) AddTema(t model.Tema) *model.Tema {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	t.ID = newID(t.ID)
	db.temas[t.ID] = &t
	return &t
}

func (db *DB) AddGrupo(g model.Grupo) *model.Grupo {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	g.ID = newID(g.ID)
	db.grupos[g.ID] = &g
	return &g
}

func (db *DB) AddClase(c model.Clase) *model.Clase {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	c.ID = newID(c.ID)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = db.now()
	}
	c.UpdatedAt = c.CreatedAt
	db.clases[c.ID] = &c
	return &c
}

func (db *DB) AddGuiaTema(g model.GuiaTema) *model.GuiaTema {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	g.ID = newID(g.ID)
	db.guiasTema[g.ID] = &g
	return &g
}

func (db *DB) AddResultado(claseID uuid.UUID, tipo model.QuizTipo, puntaje float64) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	quiz := &model.Quiz{ID: uuid.New(), IDClase: claseID, Tipo: tipo, CreatedAt: db.now()}
	db.quizzes[quiz.ID] = quiz
	r := &model.ResultadoClase{
		ID:        uuid.New(),
		IDClase:   claseID,
		IDQuiz:    quiz.ID,
		IDAlumno:  uuid.New(),
		Tipo:      tipo,
		Puntaje:   puntaje,
		CreatedAt: db.now(),
	}
	db.resultados[r.ID] = r
}

// Чтение для проверок в тестах

func (db *DB) Clase(id uuid.UUID) *model.Clase {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	if c, ok := db.clases[id]; ok {
		cp := *c
		return &cp
	}
	return nil
}

func (db *DB) Clases() []*model.Clase {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	list := make([]*model.Clase, 0, len(db.clases))
	for _, c := range db.clases {
		cp := *c
		list = append(list, &cp)
	}
	return list
}

func (db *DB) Recomendaciones() []*model.Recomendacion {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	list := make([]*model.Recomendacion, 0, len(db.recomendaciones))
	for _, r := range db.recomendaciones {
		cp := *r
		list = append(list, &cp)
	}
	return list
}
