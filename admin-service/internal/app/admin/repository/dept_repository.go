package repository

import (
	"context"
	"fmt"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/pkg/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

type deptRepository struct {
	db *pgxpool.Pool
}

// NewDeptRepository создает репозиторий отделов
func NewDeptRepository(db *pgxpool.Pool) DeptRepository {
	return &deptRepository{db: db}
}

// ListAll получает все отделы
func (r *deptRepository) ListAll(ctx context.Context) ([]entity.Dept, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "sys_dept")
	defer timer.ObserveDuration()

	query := `SELECT id, parent_id, name, ancestors, sort, status FROM sys_dept ORDER BY parent_id, sort, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list depts: %w", err)
	}
	defer rows.Close()

	depts := make([]entity.Dept, 0)
	for rows.Next() {
		var d entity.Dept
		if err := rows.Scan(&d.ID, &d.ParentID, &d.Name, &d.Ancestors, &d.Sort, &d.Status); err != nil {
			return nil, fmt.Errorf("failed to scan dept: %w", err)
		}
		depts = append(depts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating depts: %w", err)
	}

	return depts, nil
}
