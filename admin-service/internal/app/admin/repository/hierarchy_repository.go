package repository

import (
	"context"
	"fmt"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/tree"
	"adminplus/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Таблицы с колонками parent_id / ancestors
const (
	HierarchyMenu = "sys_menu"
	HierarchyDept = "sys_dept"
)

type hierarchyRepository struct {
	db    *pgxpool.Pool
	table string
}

// NewHierarchyRepository создает репозиторий путей для sys_menu или sys_dept
func NewHierarchyRepository(db *pgxpool.Pool, table string) (HierarchyRepository, error) {
	switch table {
	case HierarchyMenu, HierarchyDept:
	default:
		return nil, fmt.Errorf("unsupported hierarchy table %q", table)
	}
	return &hierarchyRepository{db: db, table: table}, nil
}

// ListNodes получает id, parent_id и ancestors всех узлов таблицы
func (r *hierarchyRepository) ListNodes(ctx context.Context) ([]entity.HierarchyNode, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, r.table)
	defer timer.ObserveDuration()

	rows, err := r.db.Query(ctx, `SELECT id, parent_id, ancestors FROM `+r.table)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list %s nodes: %w", r.table, err)
	}

	nodes, err := pgx.CollectRows(rows, scanHierarchyNode)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s nodes: %w", r.table, err)
	}

	return nodes, nil
}

// Reparent читает узлы, строит план через planner и применяет его в одной
// serializable транзакции: параллельный перенос получит ошибку сериализации
// вместо записи путей по устаревшему снимку.
func (r *hierarchyRepository) Reparent(ctx context.Context, planner ReparentPlanner) (*tree.Plan, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, r.table)
	defer timer.ObserveDuration()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT id, parent_id, ancestors FROM `+r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s nodes: %w", r.table, err)
	}
	nodes, err := pgx.CollectRows(rows, scanHierarchyNode)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s nodes: %w", r.table, err)
	}

	plan, err := planner(nodes)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	batch.Queue(`UPDATE `+r.table+` SET parent_id = $1, ancestors = $2 WHERE id = $3`, plan.ParentID, plan.Ancestors, plan.NodeID)
	for _, d := range plan.Descendants {
		batch.Queue(`UPDATE `+r.table+` SET ancestors = $1 WHERE id = $2`, d.Ancestors, d.ID)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
			return nil, fmt.Errorf("failed to update %s paths: %w", r.table, err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reparent: %w", err)
	}

	return plan, nil
}

func scanHierarchyNode(row pgx.CollectableRow) (entity.HierarchyNode, error) {
	var n entity.HierarchyNode
	err := row.Scan(&n.ID, &n.ParentID, &n.Ancestors)
	return n, err
}
