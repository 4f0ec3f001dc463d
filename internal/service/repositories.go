package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
)

// Интерфейсы хранилищ, которые нужны сервисам. Реализации: repository (pgx) и repository/inmem

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProfesorRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profesor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profesor, error)
	List(ctx context.Context) ([]*model.Profesor, error)
	ListWithTelegram(ctx context.Context) ([]*model.Profesor, error)
	SetTelegramChatID(ctx context.Context, id uuid.UUID, chatID int64) error
}

type RoleRepository interface {
	HasRole(ctx context.Context, userID uuid.UUID, role model.Role) (bool, error)
}

type AcademicoRepository interface {
	ListPlanes(ctx context.Context) ([]*model.PlanAnual, error)
	GetMateria(ctx context.Context, id uuid.UUID) (*model.Materia, error)
	ListMaterias(ctx context.Context) ([]*model.Materia, error)
	GetTema(ctx context.Context, id uuid.UUID) (*model.Tema, error)
	ListTemas(ctx context.Context, materiaIDs []uuid.UUID) ([]*model.Tema, error)
	GetGrupo(ctx context.Context, id uuid.UUID) (*model.Grupo, error)
	ListGrupos(ctx context.Context) ([]*model.Grupo, error)
}

type AsignacionRepository interface {
	Create(ctx context.Context, a *model.Asignacion) error
	Update(ctx context.Context, a *model.Asignacion) error
	FindDuplicate(ctx context.Context, profesorID, materiaID, grupoID uuid.UUID, anio string, excludeID *uuid.UUID) (*model.Asignacion, error)
	SumHoras(ctx context.Context, profesorID uuid.UUID, anio string, excludeID *uuid.UUID) (int, error)
	List(ctx context.Context, profesorID *uuid.UUID) ([]*model.Asignacion, error)
}

type ClaseRepository interface {
	Create(ctx context.Context, clase *model.Clase) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Clase, error)
	LatestCompleted(ctx context.Context, profesorID, temaID, grupoID uuid.UUID) (*model.Clase, error)
	SetGuiaVersion(ctx context.Context, claseID, versionID uuid.UUID) error
	UpdateEstado(ctx context.Context, claseID uuid.UUID, estado model.EstadoClase, fechaEjecucion *time.Time, observaciones *string) error
	ListByProfesor(ctx context.Context, profesorID uuid.UUID) ([]*model.Clase, error)
	CompletedTemaIDs(ctx context.Context) ([]uuid.UUID, error)
}

type GuiaVersionRepository interface {
	Create(ctx context.Context, version *model.GuiaVersion) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.GuiaVersion, error)
	MarkFinal(ctx context.Context, id uuid.UUID) error
}

type GuiaTemaRepository interface {
	Create(ctx context.Context, guia *model.GuiaTema) error
	GetByProfesorTema(ctx context.Context, profesorID, temaID uuid.UUID) (*model.GuiaTema, error)
	Update(ctx context.Context, guia *model.GuiaTema) error
	ListByProfesor(ctx context.Context, profesorID uuid.UUID) ([]*model.GuiaTema, error)
}

type RecomendacionRepository interface {
	Create(ctx context.Context, rec *model.Recomendacion) error
	ListByClase(ctx context.Context, claseID uuid.UUID) ([]*model.Recomendacion, error)
}

type ResultadoRepository interface {
	ListQuizzesByProfesor(ctx context.Context, profesorID uuid.UUID) ([]*model.Quiz, error)
	ListByProfesor(ctx context.Context, profesorID uuid.UUID) ([]*model.ResultadoClase, error)
}

type TelegramLinkRepository interface {
	Create(ctx context.Context, code *model.TelegramLinkCode) error
	CodeExists(ctx context.Context, code string) (bool, error)
	GetByCode(ctx context.Context, code string) (*model.TelegramLinkCode, error)
	// MarkUsed false если код уже использован или истёк к моменту at
	MarkUsed(ctx context.Context, code string, at time.Time) (bool, error)
}

// AIClient генерация текста через чат-шлюз
type AIClient interface {
	GenerateText(ctx context.Context, system, user string) (string, error)
	GenerateJSON(ctx context.Context, system, user string, out any) error
}
