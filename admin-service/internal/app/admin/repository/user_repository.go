package repository

import (
	"context"
	"errors"
	"fmt"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceName = "admin-service"

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает новый репозиторий пользователей
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, nickname, password, dept_id, status`

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Nickname,
		&user.PasswordHash,
		&user.DeptID,
		&user.Status,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername получает пользователя по логину
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "sys_user")
	defer timer.ObserveDuration()

	query := `SELECT ` + userColumns + ` FROM sys_user WHERE username = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// GetByID получает пользователя по ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "sys_user")
	defer timer.ObserveDuration()

	query := `SELECT ` + userColumns + ` FROM sys_user WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// UpdatePassword сохраняет новый хэш пароля
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "sys_user")
	defer timer.ObserveDuration()

	query := `UPDATE sys_user SET password = $1, update_time = NOW() WHERE id = $2`

	result, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update password: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
