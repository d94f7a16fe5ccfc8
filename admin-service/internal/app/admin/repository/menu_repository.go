package repository

import (
	"context"
	"fmt"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type menuRepository struct {
	db *pgxpool.Pool
}

// NewMenuRepository создает репозиторий узлов меню
func NewMenuRepository(db *pgxpool.Pool) MenuRepository {
	return &menuRepository{db: db}
}

const menuSelect = `
	SELECT id, parent_id, name, type, COALESCE(perm_key, ''), COALESCE(path, ''),
	       COALESCE(icon, ''), ancestors, sort, visible, status
	FROM sys_menu
`

// ListEnabled получает все включенные узлы, упорядоченные для построения дерева
func (r *menuRepository) ListEnabled(ctx context.Context) ([]entity.Menu, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "sys_menu")
	defer timer.ObserveDuration()

	rows, err := r.db.Query(ctx, menuSelect+`WHERE status = $1 ORDER BY parent_id, sort, id`, entity.StatusEnabled)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}

	return collectMenus(rows)
}

// EnabledByIDs получает включенные узлы из списка id
func (r *menuRepository) EnabledByIDs(ctx context.Context, ids []int64) ([]entity.Menu, error) {
	if len(ids) == 0 {
		return []entity.Menu{}, nil
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "sys_menu")
	defer timer.ObserveDuration()

	rows, err := r.db.Query(ctx, menuSelect+`WHERE id = ANY($1) AND status = $2 ORDER BY parent_id, sort, id`, ids, entity.StatusEnabled)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get menus: %w", err)
	}

	return collectMenus(rows)
}

func collectMenus(rows pgx.Rows) ([]entity.Menu, error) {
	defer rows.Close()

	menus := make([]entity.Menu, 0)
	for rows.Next() {
		var m entity.Menu
		err := rows.Scan(
			&m.ID,
			&m.ParentID,
			&m.Name,
			&m.Type,
			&m.PermKey,
			&m.Path,
			&m.Icon,
			&m.Ancestors,
			&m.Sort,
			&m.Visible,
			&m.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu: %w", err)
		}
		menus = append(menus, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menus: %w", err)
	}

	return menus, nil
}
