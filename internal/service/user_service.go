package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const telegramLinkCodeTTL = 15 * time.Minute

var errLinkCodeUsed = errors.New("link code already used")

// UserService сопоставляет пользователя auth-провайдера с учителем и ролями
type UserService struct {
	tx           TxRunner
	profesorRepo ProfesorRepository
	roleRepo     RoleRepository
	linkRepo     TelegramLinkRepository
	logger       *zap.Logger
	now          func() time.Time
}

func NewUserService(tx TxRunner, profesorRepo ProfesorRepository, roleRepo RoleRepository, linkRepo TelegramLinkRepository, logger *zap.Logger) *UserService {
	return &UserService{
		tx:           tx,
		profesorRepo: profesorRepo,
		roleRepo:     roleRepo,
		linkRepo:     linkRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// RequireProfesor возвращает учителя пользователя или NotFoundError с подсказкой
func (s *UserService) RequireProfesor(ctx context.Context, userID uuid.UUID) (*model.Profesor, error) {
	profesor, err := s.profesorRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profesor: %w", err)
	}
	if profesor == nil {
		return nil, errProfesorNotFound
	}
	return profesor, nil
}

// IsAdmin есть ли у пользователя роль admin
func (s *UserService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	ok, err := s.roleRepo.HasRole(ctx, userID, model.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("check admin role: %w", err)
	}
	return ok, nil
}

// CreateTelegramLinkCode выдаёт одноразовый код для команды /vincular
func (s *UserService) CreateTelegramLinkCode(ctx context.Context, profesor *model.Profesor) (*model.TelegramLinkCode, error) {
	code, err := s.generateLinkCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate link code: %w", err)
	}

	link := &model.TelegramLinkCode{
		Code:       code,
		IDProfesor: profesor.ID,
		ExpiresAt:  s.now().Add(telegramLinkCodeTTL),
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("create link code: %w", err)
	}

	s.logger.Info("Telegram link code created",
		zap.String("profesor_id", profesor.ID.String()),
		zap.Time("expires_at", link.ExpiresAt))

	return link, nil
}

// LinkTelegram привязывает чат по коду и возвращает имя учителя
func (s *UserService) LinkTelegram(ctx context.Context, code string, chatID int64) (string, error) {
	link, err := s.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("get link code: %w", err)
	}
	if link == nil {
		return "", fmt.Errorf("link code not found")
	}
	if !link.IsValid(s.now()) {
		return "", fmt.Errorf("link code is not valid")
	}

	profesor, err := s.profesorRepo.GetByID(ctx, link.IDProfesor)
	if err != nil {
		return "", fmt.Errorf("get profesor: %w", err)
	}
	if profesor == nil {
		return "", fmt.Errorf("profesor not found")
	}

	// код помечается условно: из двух одновременных запросов чат привяжет только один
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		marked, err := s.linkRepo.MarkUsed(ctx, code, s.now())
		if err != nil {
			return fmt.Errorf("mark link code used: %w", err)
		}
		if !marked {
			return errLinkCodeUsed
		}
		if err := s.profesorRepo.SetTelegramChatID(ctx, profesor.ID, chatID); err != nil {
			return fmt.Errorf("set telegram chat: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return profesor.Nombre, nil
}

// generateLinkCode генерирует уникальный код
func (s *UserService) generateLinkCode(ctx context.Context) (string, error) {
	const maxAttempts = 10

	for i := 0; i < maxAttempts; i++ {
		bytes := make([]byte, 5)
		if _, err := rand.Read(bytes); err != nil {
			return "", fmt.Errorf("generate random bytes: %w", err)
		}

		code := strings.TrimRight(base32.StdEncoding.EncodeToString(bytes), "=")

		exists, err := s.linkRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code exists: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique code after %d attempts", maxAttempts)
}
