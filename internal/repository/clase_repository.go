package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ClaseRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewClaseRepository(db *base.Repository, logger *zap.Logger) *ClaseRepository {
	return &ClaseRepository{
		Repository: db,
		logger:     logger,
	}
}

const claseColumns = `
	c.id, c.id_tema, c.id_grupo, c.id_profesor, c.id_guia_tema, c.id_guia_version_actual,
	c.numero_sesion, c.fecha_programada, c.fecha_ejecucion, c.duracion_minutos, c.estado,
	c.observaciones, c.created_at, c.updated_at`

func scanClase(row pgx.Row, extra ...any) (*model.Clase, error) {
	var clase model.Clase
	dest := []any{
		&clase.ID,
		&clase.IDTema,
		&clase.IDGrupo,
		&clase.IDProfesor,
		&clase.IDGuiaTema,
		&clase.IDGuiaVersionActual,
		&clase.NumeroSesion,
		&clase.FechaProgramada,
		&clase.FechaEjecucion,
		&clase.DuracionMinutos,
		&clase.Estado,
		&clase.Observaciones,
		&clase.CreatedAt,
		&clase.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &clase, nil
}

// Create создаёт занятие; пустой estado становится borrador
func (r *ClaseRepository) Create(ctx context.Context, clase *model.Clase) error {
	if clase.Estado == "" {
		clase.Estado = model.EstadoBorrador
	}

	query := `
		INSERT INTO clases (id_tema, id_grupo, id_profesor, id_guia_tema, numero_sesion,
			fecha_programada, duracion_minutos, estado, observaciones)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		clase.IDTema,
		clase.IDGrupo,
		clase.IDProfesor,
		clase.IDGuiaTema,
		clase.NumeroSesion,
		clase.FechaProgramada,
		clase.DuracionMinutos,
		clase.Estado,
		clase.Observaciones,
	).Scan(&clase.ID, &clase.CreatedAt, &clase.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert clase into DB",
			zap.String("id_tema", clase.IDTema.String()),
			zap.String("id_grupo", clase.IDGrupo.String()),
			zap.Error(err))
		return fmt.Errorf("create clase: %w", err)
	}

	r.logger.Info("Clase inserted",
		zap.String("clase_id", clase.ID.String()),
		zap.String("estado", string(clase.Estado)))

	return nil
}

// GetByID получает занятие по ID
func (r *ClaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Clase, error) {
	query := `SELECT ` + claseColumns + ` FROM clases c WHERE c.id = $1`

	clase, err := scanClase(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get clase by id: %w", err)
	}

	return clase, nil
}

// LatestCompleted последнее завершённое занятие по той же теме и группе
func (r *ClaseRepository) LatestCompleted(ctx context.Context, profesorID, temaID, grupoID uuid.UUID) (*model.Clase, error) {
	query := `
		SELECT ` + claseColumns + `
		FROM clases c
		WHERE c.id_profesor = $1 AND c.id_tema = $2 AND c.id_grupo = $3 AND c.estado = $4
		ORDER BY c.fecha_ejecucion DESC NULLS LAST
		LIMIT 1
	`

	clase, err := scanClase(r.QueryRow(ctx, query, profesorID, temaID, grupoID, model.EstadoCompletada))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest completed clase: %w", err)
	}

	return clase, nil
}

// SetGuiaVersion привязывает текущую версию гида
func (r *ClaseRepository) SetGuiaVersion(ctx context.Context, claseID, versionID uuid.UUID) error {
	query := `UPDATE clases SET id_guia_version_actual = $1, updated_at = now() WHERE id = $2`

	affected, err := r.ExecAffected(ctx, query, versionID, claseID)
	if err != nil {
		return fmt.Errorf("set guia version: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("clase not found")
	}
	return nil
}

// UpdateEstado записывает статус; fechaEjecucion и observaciones меняются только если заданы
func (r *ClaseRepository) UpdateEstado(ctx context.Context, claseID uuid.UUID, estado model.EstadoClase, fechaEjecucion *time.Time, observaciones *string) error {
	query := `
		UPDATE clases
		SET estado = $1,
			fecha_ejecucion = COALESCE($2, fecha_ejecucion),
			observaciones = COALESCE($3, observaciones),
			updated_at = now()
		WHERE id = $4
	`

	affected, err := r.ExecAffected(ctx, query, estado, fechaEjecucion, observaciones, claseID)
	if err != nil {
		return fmt.Errorf("update clase estado: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("clase not found")
	}

	r.logger.Info("Clase estado updated",
		zap.String("clase_id", claseID.String()),
		zap.String("estado", string(estado)))

	return nil
}

// ListByProfesor все занятия учителя вместе с темой и группой
func (r *ClaseRepository) ListByProfesor(ctx context.Context, profesorID uuid.UUID) ([]*model.Clase, error) {
	query := `
		SELECT ` + claseColumns + `, t.nombre, t.id_materia, g.nombre, g.grado
		FROM clases c
		INNER JOIN temas t ON t.id = c.id_tema
		INNER JOIN grupos g ON g.id = c.id_grupo
		WHERE c.id_profesor = $1
		ORDER BY c.fecha_programada NULLS LAST, c.created_at
	`

	rows, err := r.Query(ctx, query, profesorID)
	if err != nil {
		r.logger.Error("Failed to query clases",
			zap.String("profesor_id", profesorID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("get clases by profesor: %w", err)
	}
	defer rows.Close()

	var clases []*model.Clase
	for rows.Next() {
		tema := &model.Tema{}
		grupo := &model.Grupo{}
		clase, err := scanClase(rows, &tema.Nombre, &tema.IDMateria, &grupo.Nombre, &grupo.Grado)
		if err != nil {
			return nil, fmt.Errorf("scan clase: %w", err)
		}
		tema.ID = clase.IDTema
		grupo.ID = clase.IDGrupo
		clase.Tema = tema
		clase.Grupo = grupo
		clases = append(clases, clase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clases: %w", err)
	}

	return clases, nil
}

// CompletedTemaIDs темы, по которым есть хотя бы одно завершённое занятие
func (r *ClaseRepository) CompletedTemaIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT id_tema FROM clases WHERE estado = $1`

	rows, err := r.Query(ctx, query, model.EstadoCompletada)
	if err != nil {
		return nil, fmt.Errorf("get completed temas: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tema id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
