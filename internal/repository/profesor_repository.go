package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProfesorRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewProfesorRepository(db *base.Repository, logger *zap.Logger) *ProfesorRepository {
	return &ProfesorRepository{
		Repository: db,
		logger:     logger,
	}
}

const profesorColumns = `id, user_id, nombre, apellidos, email, activo, telegram_chat_id, created_at`

func (r *ProfesorRepository) getOne(ctx context.Context, where string, arg any) (*model.Profesor, error) {
	var p model.Profesor
	err := r.QueryRow(ctx, `SELECT `+profesorColumns+` FROM profesores WHERE `+where, arg).Scan(
		&p.ID,
		&p.UserID,
		&p.Nombre,
		&p.Apellidos,
		&p.Email,
		&p.Activo,
		&p.TelegramChatID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID получает учителя по ID
func (r *ProfesorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profesor, error) {
	p, err := r.getOne(ctx, "id = $1", id)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profesor by id: %w", err)
	}
	return p, nil
}

// GetByUserID получает учителя по ID пользователя auth-провайдера
func (r *ProfesorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profesor, error) {
	p, err := r.getOne(ctx, "user_id = $1", userID)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profesor by user id: %w", err)
	}
	return p, nil
}

func (r *ProfesorRepository) list(ctx context.Context, query string) ([]*model.Profesor, error) {
	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profesores: %w", err)
	}
	defer rows.Close()

	var profesores []*model.Profesor
	for rows.Next() {
		var p model.Profesor
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Nombre,
			&p.Apellidos,
			&p.Email,
			&p.Activo,
			&p.TelegramChatID,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan profesor: %w", err)
		}
		profesores = append(profesores, &p)
	}
	return profesores, rows.Err()
}

// List все учителя
func (r *ProfesorRepository) List(ctx context.Context) ([]*model.Profesor, error) {
	return r.list(ctx, `SELECT `+profesorColumns+` FROM profesores ORDER BY apellidos, nombre`)
}

// ListWithTelegram активные учителя с привязанным Telegram-чатом
func (r *ProfesorRepository) ListWithTelegram(ctx context.Context) ([]*model.Profesor, error) {
	return r.list(ctx, `SELECT `+profesorColumns+` FROM profesores WHERE activo = true AND telegram_chat_id IS NOT NULL`)
}

// SetTelegramChatID привязывает Telegram-чат
func (r *ProfesorRepository) SetTelegramChatID(ctx context.Context, id uuid.UUID, chatID int64) error {
	affected, err := r.ExecAffected(ctx, `UPDATE profesores SET telegram_chat_id = $1 WHERE id = $2`, chatID, id)
	if err != nil {
		return fmt.Errorf("set telegram chat id: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profesor not found")
	}

	r.logger.Info("Telegram chat linked",
		zap.String("profesor_id", id.String()),
		zap.Int64("chat_id", chatID))

	return nil
}
