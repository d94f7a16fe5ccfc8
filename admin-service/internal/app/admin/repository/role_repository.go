package repository

import (
	"context"
	"fmt"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type roleRepository struct {
	db *pgxpool.Pool
}

// NewRoleRepository создает репозиторий ролей и связей sys_user_role / sys_role_menu
func NewRoleRepository(db *pgxpool.Pool) RoleRepository {
	return &roleRepository{db: db}
}

// RoleIDsByUser получает id ролей пользователя
func (r *roleRepository) RoleIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "sys_user_role")
	defer timer.ObserveDuration()

	rows, err := r.db.Query(ctx, `SELECT role_id FROM sys_user_role WHERE user_id = $1`, userID)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan user roles: %w", err)
	}

	return ids, nil
}

// EnabledByIDs получает включенные роли по списку id
func (r *roleRepository) EnabledByIDs(ctx context.Context, roleIDs []int64) ([]entity.Role, error) {
	if len(roleIDs) == 0 {
		return []entity.Role{}, nil
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "sys_role")
	defer timer.ObserveDuration()

	query := `
		SELECT id, code, name, status
		FROM sys_role
		WHERE id = ANY($1) AND status = $2
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, roleIDs, entity.StatusEnabled)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	defer rows.Close()

	roles := make([]entity.Role, 0, len(roleIDs))
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Code, &role.Name, &role.Status); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

// MenuIDsByRoles получает id узлов меню для всех ролей одним запросом
func (r *roleRepository) MenuIDsByRoles(ctx context.Context, roleIDs []int64) ([]int64, error) {
	if len(roleIDs) == 0 {
		return []int64{}, nil
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "sys_role_menu")
	defer timer.ObserveDuration()

	rows, err := r.db.Query(ctx, `SELECT DISTINCT menu_id FROM sys_role_menu WHERE role_id = ANY($1)`, roleIDs)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get role menus: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan role menus: %w", err)
	}

	return ids, nil
}
