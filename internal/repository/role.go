package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sarbojanin/clubsite/internal/model"
)

type RoleRepository interface {
	Assign(ctx context.Context, userID, role string) error
	Roles(ctx context.Context, userID string) ([]*model.RoleAssignment, error)
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

type roleRepository struct {
	db *sqlx.DB
}

func NewRoleRepository(db *sqlx.DB) RoleRepository {
	return &roleRepository{db: db}
}

// Assign grants a role to a user. Granting an already-held role is a no-op.
func (r *roleRepository) Assign(ctx context.Context, userID, role string) error {
	query := `INSERT INTO user_roles (user_id, role, created_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, role) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, userID, role, time.Now())
	return err
}

func (r *roleRepository) Roles(ctx context.Context, userID string) ([]*model.RoleAssignment, error) {
	var roles []*model.RoleAssignment
	query := `SELECT * FROM user_roles WHERE user_id = $1`

	err := r.db.SelectContext(ctx, &roles, query, userID)
	if err != nil {
		return nil, err
	}

	return roles, nil
}

func (r *roleRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_roles WHERE user_id = $1 AND role = $2`

	err := r.db.QueryRowContext(ctx, query, userID, role).Scan(&count)
	return count > 0, err
}
