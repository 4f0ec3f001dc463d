package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GuiaVersionRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewGuiaVersionRepository(db *base.Repository, logger *zap.Logger) *GuiaVersionRepository {
	return &GuiaVersionRepository{
		Repository: db,
		logger:     logger,
	}
}

// Create добавляет новую версию; номер версии = max + 1 в рамках занятия
func (r *GuiaVersionRepository) Create(ctx context.Context, version *model.GuiaVersion) error {
	query := `
		INSERT INTO guias_clase_versiones (id_clase, version_numero, contenido, es_final, generada_ia, created_by)
		VALUES ($1,
			(SELECT COALESCE(MAX(version_numero), 0) + 1 FROM guias_clase_versiones WHERE id_clase = $1),
			$2, $3, $4, $5)
		RETURNING id, version_numero, created_at
	`

	err := r.QueryRow(
		ctx, query,
		version.IDClase,
		version.Contenido,
		version.EsFinal,
		version.GeneradaIA,
		version.CreatedBy,
	).Scan(&version.ID, &version.VersionNumero, &version.CreatedAt)

	if err != nil {
		r.logger.Error("Failed to insert guia version",
			zap.String("clase_id", version.IDClase.String()),
			zap.Error(err))
		return fmt.Errorf("create guia version: %w", err)
	}

	r.logger.Info("Guia version inserted",
		zap.String("version_id", version.ID.String()),
		zap.String("clase_id", version.IDClase.String()),
		zap.Int("version_numero", version.VersionNumero))

	return nil
}

// GetByID получает версию гида по ID
func (r *GuiaVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GuiaVersion, error) {
	query := `
		SELECT id, id_clase, version_numero, contenido, es_final, generada_ia, created_by, created_at
		FROM guias_clase_versiones
		WHERE id = $1
	`

	var version model.GuiaVersion
	err := r.QueryRow(ctx, query, id).Scan(
		&version.ID,
		&version.IDClase,
		&version.VersionNumero,
		&version.Contenido,
		&version.EsFinal,
		&version.GeneradaIA,
		&version.CreatedBy,
		&version.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get guia version by id: %w", err)
	}

	return &version, nil
}

// MarkFinal помечает версию как финальную
func (r *GuiaVersionRepository) MarkFinal(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `UPDATE guias_clase_versiones SET es_final = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark guia version final: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("guia version not found")
	}
	return nil
}
