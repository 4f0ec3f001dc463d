package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AsignacionRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewAsignacionRepository(db *base.Repository, logger *zap.Logger) *AsignacionRepository {
	return &AsignacionRepository{
		Repository: db,
		logger:     logger,
	}
}

const asignacionColumns = `id, id_profesor, id_materia, id_grupo, anio_escolar, horas_semanales, created_at`

// Create создаёт назначение
func (r *AsignacionRepository) Create(ctx context.Context, a *model.Asignacion) error {
	query := `
		INSERT INTO asignaciones_profesor (id_profesor, id_materia, id_grupo, anio_escolar, horas_semanales)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query,
		a.IDProfesor,
		a.IDMateria,
		a.IDGrupo,
		a.AnioEscolar,
		a.HorasSemanales,
	).Scan(&a.ID, &a.CreatedAt)

	if err != nil {
		r.logger.Error("Failed to insert asignacion",
			zap.String("profesor_id", a.IDProfesor.String()),
			zap.Error(err))
		return fmt.Errorf("create asignacion: %w", err)
	}

	r.logger.Info("Asignacion inserted",
		zap.String("asignacion_id", a.ID.String()),
		zap.String("profesor_id", a.IDProfesor.String()),
		zap.String("anio_escolar", a.AnioEscolar))

	return nil
}

// Update обновляет назначение
func (r *AsignacionRepository) Update(ctx context.Context, a *model.Asignacion) error {
	query := `
		UPDATE asignaciones_profesor
		SET id_profesor = $1, id_materia = $2, id_grupo = $3, anio_escolar = $4, horas_semanales = $5
		WHERE id = $6
	`

	affected, err := r.ExecAffected(ctx, query,
		a.IDProfesor,
		a.IDMateria,
		a.IDGrupo,
		a.AnioEscolar,
		a.HorasSemanales,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update asignacion: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("asignacion not found")
	}

	return nil
}

// FindDuplicate назначение с тем же (profesor, materia, grupo, anio), кроме excludeID
func (r *AsignacionRepository) FindDuplicate(ctx context.Context, profesorID, materiaID, grupoID uuid.UUID, anio string, excludeID *uuid.UUID) (*model.Asignacion, error) {
	query := `
		SELECT ` + asignacionColumns + `
		FROM asignaciones_profesor
		WHERE id_profesor = $1 AND id_materia = $2 AND id_grupo = $3 AND anio_escolar = $4
			AND ($5::uuid IS NULL OR id <> $5)
		LIMIT 1
	`

	var a model.Asignacion
	err := r.QueryRow(ctx, query, profesorID, materiaID, grupoID, anio, excludeID).Scan(
		&a.ID,
		&a.IDProfesor,
		&a.IDMateria,
		&a.IDGrupo,
		&a.AnioEscolar,
		&a.HorasSemanales,
		&a.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find duplicate asignacion: %w", err)
	}

	return &a, nil
}

// SumHoras сумма недельных часов учителя за год без excludeID
func (r *AsignacionRepository) SumHoras(ctx context.Context, profesorID uuid.UUID, anio string, excludeID *uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(SUM(horas_semanales), 0)
		FROM asignaciones_profesor
		WHERE id_profesor = $1 AND anio_escolar = $2 AND ($3::uuid IS NULL OR id <> $3)
	`

	var total int
	if err := r.QueryRow(ctx, query, profesorID, anio, excludeID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum horas asignaciones: %w", err)
	}
	return total, nil
}

// List все назначения, profesorID != nil фильтрует по учителю
func (r *AsignacionRepository) List(ctx context.Context, profesorID *uuid.UUID) ([]*model.Asignacion, error) {
	query := `
		SELECT ` + asignacionColumns + `
		FROM asignaciones_profesor
		WHERE ($1::uuid IS NULL OR id_profesor = $1)
		ORDER BY anio_escolar DESC, created_at
	`

	rows, err := r.Query(ctx, query, profesorID)
	if err != nil {
		return nil, fmt.Errorf("list asignaciones: %w", err)
	}
	defer rows.Close()

	var asignaciones []*model.Asignacion
	for rows.Next() {
		var a model.Asignacion
		if err := rows.Scan(
			&a.ID,
			&a.IDProfesor,
			&a.IDMateria,
			&a.IDGrupo,
			&a.AnioEscolar,
			&a.HorasSemanales,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan asignacion: %w", err)
		}
		asignaciones = append(asignaciones, &a)
	}
	return asignaciones, rows.Err()
}
