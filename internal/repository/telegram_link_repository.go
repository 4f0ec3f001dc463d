package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
)

type TelegramLinkRepository struct {
	*base.Repository
}

func NewTelegramLinkRepository(db *base.Repository) *TelegramLinkRepository {
	return &TelegramLinkRepository{Repository: db}
}

// Create сохраняет код привязки
func (r *TelegramLinkRepository) Create(ctx context.Context, code *model.TelegramLinkCode) error {
	err := r.QueryRow(ctx, `
		INSERT INTO telegram_link_codes (code, id_profesor, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, code.Code, code.IDProfesor, code.ExpiresAt).Scan(&code.CreatedAt)
	if err != nil {
		return fmt.Errorf("create telegram link code: %w", err)
	}
	return nil
}

// CodeExists проверяет занят ли код
func (r *TelegramLinkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM telegram_link_codes WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check telegram link code: %w", err)
	}
	return exists, nil
}

// GetByCode получает код по строке
func (r *TelegramLinkRepository) GetByCode(ctx context.Context, code string) (*model.TelegramLinkCode, error) {
	var c model.TelegramLinkCode
	err := r.QueryRow(ctx, `
		SELECT code, id_profesor, expires_at, used_at, created_at
		FROM telegram_link_codes
		WHERE code = $1
	`, code).Scan(&c.Code, &c.IDProfesor, &c.ExpiresAt, &c.UsedAt, &c.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get telegram link code: %w", err)
	}
	return &c, nil
}

// MarkUsed атомарно помечает код использованным; false если его уже занял другой запрос
func (r *TelegramLinkRepository) MarkUsed(ctx context.Context, code string, at time.Time) (bool, error) {
	affected, err := r.ExecAffected(ctx, `
		UPDATE telegram_link_codes SET used_at = $1
		WHERE code = $2 AND used_at IS NULL AND expires_at > $1
	`, at, code)
	if err != nil {
		return false, fmt.Errorf("mark telegram link code used: %w", err)
	}
	return affected == 1, nil
}
