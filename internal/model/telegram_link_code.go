package model

import (
	"time"

	"github.com/google/uuid"
)

// TelegramLinkCode одноразовый код для привязки Telegram-чата к учителю
type TelegramLinkCode struct {
	Code       string     `json:"code"`
	IDProfesor uuid.UUID  `json:"id_profesor"`
	ExpiresAt  time.Time  `json:"expires_at"`
	UsedAt     *time.Time `json:"used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsValid проверяет что код можно использовать
func (t *TelegramLinkCode) IsValid(now time.Time) bool {
	if t.UsedAt != nil {
		return false
	}
	return now.Before(t.ExpiresAt)
}
