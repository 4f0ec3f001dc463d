package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/aula_backend/internal/model"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
	"github.com/google/uuid"
)

type RoleRepository struct {
	*base.Repository
}

func NewRoleRepository(db *base.Repository) *RoleRepository {
	return &RoleRepository{Repository: db}
}

// HasRole есть ли у пользователя роль в user_roles
func (r *RoleRepository) HasRole(ctx context.Context, userID uuid.UUID, role model.Role) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`,
		userID, role,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user role: %w", err)
	}
	return exists, nil
}
