package service

import (
	"context"
	"fmt"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/repository"
	"adminplus/admin-service/internal/app/admin/tree"
	"adminplus/pkg/logger"
)

// moveNode переносит узел иерархии. План строится внутри транзакции хранилища
// по актуальному состоянию, поэтому проверка цикла и запись не расходятся.
func moveNode(ctx context.Context, repo repository.HierarchyRepository, kind string, id, parentID int64) error {
	plan, err := repo.Reparent(ctx, func(nodes []entity.HierarchyNode) (*tree.Plan, error) {
		return tree.PlanReparent(nodes, id, parentID, entity.RootParentID)
	})
	if err != nil {
		logger.Warn().
			Err(err).
			Str("kind", kind).
			Int64("id", id).
			Int64("parent_id", parentID).
			Msg("Reparent rejected")
		return err
	}

	logger.Info().
		Str("kind", kind).
		Int64("id", id).
		Int64("parent_id", parentID).
		Int("descendants", len(plan.Descendants)).
		Msg("Node moved")
	return nil
}

// MenuService - навигация и обслуживание дерева меню
type MenuService struct {
	permissions *PermissionService
	hierarchy   repository.HierarchyRepository
}

func NewMenuService(permissions *PermissionService, hierarchy repository.HierarchyRepository) *MenuService {
	return &MenuService{permissions: permissions, hierarchy: hierarchy}
}

func (s *MenuService) UserMenuTree(ctx context.Context, principal entity.Principal) ([]*entity.MenuTreeNode, error) {
	return s.permissions.UserMenuTree(ctx, principal.ID)
}

func (s *MenuService) Move(ctx context.Context, id, parentID int64) error {
	return moveNode(ctx, s.hierarchy, "menu", id, parentID)
}

// DeptService - дерево отделов с ограничением по отделу пользователя
type DeptService struct {
	deptRepo  repository.DeptRepository
	hierarchy repository.HierarchyRepository
}

func NewDeptService(deptRepo repository.DeptRepository, hierarchy repository.HierarchyRepository) *DeptService {
	return &DeptService{deptRepo: deptRepo, hierarchy: hierarchy}
}

// DeptTree: супер-роль видит все дерево, остальные - поддерево своего отдела.
// Пользователь без отдела получает пустое дерево.
func (s *DeptService) DeptTree(ctx context.Context, principal entity.Principal) ([]*entity.DeptTreeNode, error) {
	depts, err := s.deptRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list depts: %w", err)
	}

	if !principal.IsSuper() {
		if principal.DeptID == nil {
			return []*entity.DeptTreeNode{}, nil
		}
		visible := make(map[int64]struct{})
		for _, id := range tree.DescendantIDs(depts, *principal.DeptID) {
			visible[id] = struct{}{}
		}
		scoped := make([]entity.Dept, 0, len(visible))
		for _, d := range depts {
			if _, ok := visible[d.ID]; ok {
				scoped = append(scoped, d)
			}
		}
		depts = scoped
	}

	return toDeptTree(tree.Build(depts, entity.RootParentID)), nil
}

func (s *DeptService) Move(ctx context.Context, id, parentID int64) error {
	return moveNode(ctx, s.hierarchy, "dept", id, parentID)
}

func toDeptTree(nodes []*tree.Node[entity.Dept]) []*entity.DeptTreeNode {
	out := make([]*entity.DeptTreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &entity.DeptTreeNode{
			Dept:     n.Item,
			Children: toDeptTree(n.Children),
		})
	}
	return out
}
