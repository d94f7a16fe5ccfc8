package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/service"
)

// HierarchyHandler обслуживает деревья меню и отделов
type HierarchyHandler struct {
	menuService service.MenuServiceInterface
	deptService service.DeptServiceInterface
	validator   *validator.Validate
}

func NewHierarchyHandler(menuService service.MenuServiceInterface, deptService service.DeptServiceInterface) *HierarchyHandler {
	return &HierarchyHandler{
		menuService: menuService,
		deptService: deptService,
		validator:   validator.New(),
	}
}

func (h *HierarchyHandler) MenuTree(c *gin.Context) {
	principal, _ := currentPrincipal(c)

	forest, err := h.menuService.UserMenuTree(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, forest)
}

func (h *HierarchyHandler) MoveMenu(c *gin.Context) {
	h.move(c, h.menuService.Move)
}

func (h *HierarchyHandler) DeptTree(c *gin.Context) {
	principal, _ := currentPrincipal(c)

	forest, err := h.deptService.DeptTree(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, forest)
}

func (h *HierarchyHandler) MoveDept(c *gin.Context) {
	h.move(c, h.deptService.Move)
}

func (h *HierarchyHandler) move(c *gin.Context, moveFn func(ctx context.Context, id, parentID int64) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req entity.MoveNodeRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	if err := moveFn(c.Request.Context(), id, *req.ParentID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"id": id, "parent_id": *req.ParentID})
}
