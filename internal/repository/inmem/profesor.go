package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/google/uuid"
)

type ProfesorRepository struct {
	db *DB
}

func NewProfesorRepository(db *DB) *ProfesorRepository {
	return &ProfesorRepository{db: db}
}

func (r *ProfesorRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Profesor, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	if p, ok := r.db.profesores[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *ProfesorRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Profesor, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	for _, p := range r.db.profesores {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ProfesorRepository) List(_ context.Context) ([]*model.Profesor, error) {
	return r.filter(func(*model.Profesor) bool { return true }), nil
}

func (r *ProfesorRepository) ListWithTelegram(_ context.Context) ([]*model.Profesor, error) {
	return r.filter(func(p *model.Profesor) bool { return p.Activo && p.TelegramChatID != nil }), nil
}

func (r *ProfesorRepository) SetTelegramChatID(_ context.Context, id uuid.UUID, chatID int64) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	if p, ok := r.db.profesores[id]; ok {
		p.TelegramChatID = &chatID
	}
	return nil
}

func (r *ProfesorRepository) filter(keep func(*model.Profesor) bool) []*model.Profesor {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	list := make([]*model.Profesor, 0, len(r.db.profesores))
	for _, p := range r.db.profesores {
		if keep(p) {
			cp := *p
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].NombreCompleto() < list[j].NombreCompleto() })
	return list
}

type RoleRepository struct {
	db *DB
}

func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) HasRole(_ context.Context, userID uuid.UUID, role model.Role) (bool, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	for _, rl := range r.db.roles[userID] {
		if rl == role {
			return true, nil
		}
	}
	return false, nil
}

type TelegramLinkRepository struct {
	db *DB
}

func NewTelegramLinkRepository(db *DB) *TelegramLinkRepository {
	return &TelegramLinkRepository{db: db}
}

func (r *TelegramLinkRepository) Create(_ context.Context, code *model.TelegramLinkCode) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	code.CreatedAt = r.db.now()
	cp := *code
	r.db.linkCodes[code.Code] = &cp
	return nil
}

func (r *TelegramLinkRepository) CodeExists(_ context.Context, code string) (bool, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	_, ok := r.db.linkCodes[code]
	return ok, nil
}

func (r *TelegramLinkRepository) GetByCode(_ context.Context, code string) (*model.TelegramLinkCode, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	if c, ok := r.db.linkCodes[code]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *TelegramLinkRepository) MarkUsed(_ context.Context, code string, at time.Time) (bool, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()
	c, ok := r.db.linkCodes[code]
	if !ok || c.UsedAt != nil || !c.ExpiresAt.After(at) {
		return false, nil
	}
	c.UsedAt = &at
	return true, nil
}
