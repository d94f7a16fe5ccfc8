package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/repository"
	"adminplus/admin-service/internal/app/admin/tree"
)

// PermissionService вычисляет эффективные роли и разрешения пользователя:
// user -> roles -> menus -> perm_key. Результат - снимок на момент вызова.
//
// Политика супер-роли: ROLE_ADMIN получает все включенные узлы, включая кнопки.
type PermissionService struct {
	roleRepo repository.RoleRepository
	menuRepo repository.MenuRepository
}

func NewPermissionService(roleRepo repository.RoleRepository, menuRepo repository.MenuRepository) *PermissionService {
	return &PermissionService{
		roleRepo: roleRepo,
		menuRepo: menuRepo,
	}
}

// Resolve возвращает роли и разрешения пользователя.
// Пользователь без ролей получает пустые наборы.
func (s *PermissionService) Resolve(ctx context.Context, userID int64) (*entity.PermissionSet, error) {
	roles, err := s.enabledRoles(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &entity.PermissionSet{
		RoleIDs:        []int64{},
		RoleCodes:      []string{},
		PermissionKeys: []string{},
	}
	if len(roles) == 0 {
		return result, nil
	}

	codes := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		result.RoleIDs = append(result.RoleIDs, role.ID)
		codes[role.Code] = struct{}{}
	}
	result.RoleCodes = sortedKeys(codes)

	menus, err := s.menusFor(ctx, result)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(menus))
	for _, m := range menus {
		if m.Status != entity.StatusEnabled {
			continue
		}
		key := strings.TrimSpace(m.PermKey)
		if key == "" {
			continue
		}
		keys[key] = struct{}{}
	}
	result.PermissionKeys = sortedKeys(keys)

	return result, nil
}

// UserMenuTree строит навигационное дерево пользователя: его узлы меню
// вместе с цепочками предков, без кнопок и скрытых узлов
func (s *PermissionService) UserMenuTree(ctx context.Context, userID int64) ([]*entity.MenuTreeNode, error) {
	set, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	all, err := s.menuRepo.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}

	selected := all
	if !set.IsSuper() {
		if len(set.RoleIDs) == 0 {
			return []*entity.MenuTreeNode{}, nil
		}
		menuIDs, err := s.roleRepo.MenuIDsByRoles(ctx, set.RoleIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to get role menus: %w", err)
		}
		ids := make(map[int64]struct{}, len(menuIDs))
		for _, id := range menuIDs {
			ids[id] = struct{}{}
		}
		selected = tree.WithAncestors(all, ids)
	}

	navigable := make([]entity.Menu, 0, len(selected))
	for _, m := range selected {
		if m.Navigable() {
			navigable = append(navigable, m)
		}
	}

	return toMenuTree(tree.Build(navigable, entity.RootParentID)), nil
}

func (s *PermissionService) enabledRoles(ctx context.Context, userID int64) ([]entity.Role, error) {
	roleIDs, err := s.roleRepo.RoleIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	if len(roleIDs) == 0 {
		return nil, nil
	}

	roles, err := s.roleRepo.EnabledByIDs(ctx, dedupeIDs(roleIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}

	enabled := make([]entity.Role, 0, len(roles))
	for _, role := range roles {
		if role.Status == entity.StatusEnabled {
			enabled = append(enabled, role)
		}
	}
	return enabled, nil
}

func (s *PermissionService) menusFor(ctx context.Context, set *entity.PermissionSet) ([]entity.Menu, error) {
	if set.IsSuper() {
		menus, err := s.menuRepo.ListEnabled(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list menus: %w", err)
		}
		return menus, nil
	}

	if len(set.RoleIDs) == 0 {
		return []entity.Menu{}, nil
	}

	menuIDs, err := s.roleRepo.MenuIDsByRoles(ctx, set.RoleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get role menus: %w", err)
	}
	if len(menuIDs) == 0 {
		return []entity.Menu{}, nil
	}

	menus, err := s.menuRepo.EnabledByIDs(ctx, dedupeIDs(menuIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get menus: %w", err)
	}
	return menus, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toMenuTree(nodes []*tree.Node[entity.Menu]) []*entity.MenuTreeNode {
	out := make([]*entity.MenuTreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &entity.MenuTreeNode{
			Menu:     n.Item,
			Children: toMenuTree(n.Children),
		})
	}
	return out
}
