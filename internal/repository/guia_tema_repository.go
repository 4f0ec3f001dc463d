package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GuiaTemaRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewGuiaTemaRepository(db *base.Repository, logger *zap.Logger) *GuiaTemaRepository {
	return &GuiaTemaRepository{
		Repository: db,
		logger:     logger,
	}
}

const guiaTemaColumns = `id, id_profesor, id_tema, contenido, objetivos, estructura_sesiones, total_sesiones, created_at, updated_at`

// Create создаёт мастер-гид
func (r *GuiaTemaRepository) Create(ctx context.Context, guia *model.GuiaTema) error {
	if len(guia.EstructuraSesiones) == 0 {
		guia.EstructuraSesiones = []byte("[]")
	}

	query := `
		INSERT INTO guias_tema (id_profesor, id_tema, contenido, objetivos, estructura_sesiones, total_sesiones)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(ctx, query,
		guia.IDProfesor,
		guia.IDTema,
		guia.Contenido,
		guia.Objetivos,
		guia.EstructuraSesiones,
		guia.TotalSesiones,
	).Scan(&guia.ID, &guia.CreatedAt, &guia.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert guia tema",
			zap.String("profesor_id", guia.IDProfesor.String()),
			zap.String("tema_id", guia.IDTema.String()),
			zap.Error(err))
		return fmt.Errorf("create guia tema: %w", err)
	}

	return nil
}

// GetByProfesorTema получает мастер-гид учителя по теме
func (r *GuiaTemaRepository) GetByProfesorTema(ctx context.Context, profesorID, temaID uuid.UUID) (*model.GuiaTema, error) {
	query := `SELECT ` + guiaTemaColumns + ` FROM guias_tema WHERE id_profesor = $1 AND id_tema = $2`

	var guia model.GuiaTema
	err := r.QueryRow(ctx, query, profesorID, temaID).Scan(
		&guia.ID,
		&guia.IDProfesor,
		&guia.IDTema,
		&guia.Contenido,
		&guia.Objetivos,
		&guia.EstructuraSesiones,
		&guia.TotalSesiones,
		&guia.CreatedAt,
		&guia.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get guia tema: %w", err)
	}

	return &guia, nil
}

// Update обновляет содержимое мастер-гида
func (r *GuiaTemaRepository) Update(ctx context.Context, guia *model.GuiaTema) error {
	query := `
		UPDATE guias_tema
		SET contenido = $1, objetivos = $2, estructura_sesiones = $3, total_sesiones = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.QueryRow(ctx, query,
		guia.Contenido,
		guia.Objetivos,
		guia.EstructuraSesiones,
		guia.TotalSesiones,
		guia.ID,
	).Scan(&guia.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("guia tema not found")
		}
		return fmt.Errorf("update guia tema: %w", err)
	}

	return nil
}

// ListByProfesor все мастер-гиды учителя
func (r *GuiaTemaRepository) ListByProfesor(ctx context.Context, profesorID uuid.UUID) ([]*model.GuiaTema, error) {
	query := `SELECT ` + guiaTemaColumns + ` FROM guias_tema WHERE id_profesor = $1`

	rows, err := r.Query(ctx, query, profesorID)
	if err != nil {
		return nil, fmt.Errorf("get guias tema by profesor: %w", err)
	}
	defer rows.Close()

	var guias []*model.GuiaTema
	for rows.Next() {
		var guia model.GuiaTema
		if err := rows.Scan(
			&guia.ID,
			&guia.IDProfesor,
			&guia.IDTema,
			&guia.Contenido,
			&guia.Objetivos,
			&guia.EstructuraSesiones,
			&guia.TotalSesiones,
			&guia.CreatedAt,
			&guia.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan guia tema: %w", err)
		}
		guias = append(guias, &guia)
	}

	return guias, rows.Err()
}
