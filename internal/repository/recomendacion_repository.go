package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RecomendacionRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewRecomendacionRepository(db *base.Repository, logger *zap.Logger) *RecomendacionRepository {
	return &RecomendacionRepository{
		Repository: db,
		logger:     logger,
	}
}

// Create создаёт рекомендацию
func (r *RecomendacionRepository) Create(ctx context.Context, rec *model.Recomendacion) error {
	if rec.Tipo == "" {
		rec.Tipo = model.RecomendacionContinuidad
	}

	query := `
		INSERT INTO recomendaciones (id_clase, id_clase_anterior, tipo, contenido, aplicada)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query,
		rec.IDClase,
		rec.IDClaseAnterior,
		rec.Tipo,
		rec.Contenido,
		rec.Aplicada,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		return fmt.Errorf("create recomendacion: %w", err)
	}

	return nil
}

// ListByClase рекомендации для занятия
func (r *RecomendacionRepository) ListByClase(ctx context.Context, claseID uuid.UUID) ([]*model.Recomendacion, error) {
	query := `
		SELECT id, id_clase, id_clase_anterior, tipo, contenido, aplicada, created_at
		FROM recomendaciones
		WHERE id_clase = $1
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, claseID)
	if err != nil {
		return nil, fmt.Errorf("get recomendaciones by clase: %w", err)
	}
	defer rows.Close()

	var recs []*model.Recomendacion
	for rows.Next() {
		var rec model.Recomendacion
		if err := rows.Scan(
			&rec.ID,
			&rec.IDClase,
			&rec.IDClaseAnterior,
			&rec.Tipo,
			&rec.Contenido,
			&rec.Aplicada,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recomendacion: %w", err)
		}
		recs = append(recs, &rec)
	}

	return recs, rows.Err()
}
