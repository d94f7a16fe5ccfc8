package entity

import (
	"time"
)

// Status - статус записи справочников (1 - включена, 0 - выключена)
type Status int

const (
	StatusDisabled Status = 0
	StatusEnabled  Status = 1
)

// SuperRoleCode - роль, получающая все включенные узлы меню
const SuperRoleCode = "ROLE_ADMIN"

// RootParentID - parent_id корневых узлов меню и отделов
const RootParentID int64 = 0

// User представляет учетную запись (таблица sys_user)
type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	Nickname     string `json:"nickname" db:"nickname"`
	PasswordHash string `json:"-" db:"password"`
	DeptID       *int64 `json:"dept_id,omitempty" db:"dept_id"`
	Status       Status `json:"status" db:"status"`
}

// Enabled сообщает, может ли пользователь входить в систему
func (u *User) Enabled() bool {
	return u.Status == StatusEnabled
}

// Role - роль (таблица sys_role), code используется в claims токена
type Role struct {
	ID     int64  `json:"id" db:"id"`
	Code   string `json:"code" db:"code"`
	Name   string `json:"name" db:"name"`
	Status Status `json:"status" db:"status"`
}

// MenuType - вид узла дерева разрешений
type MenuType int

const (
	MenuTypeDirectory MenuType = 0
	MenuTypePage      MenuType = 1
	MenuTypeAction    MenuType = 2
)

// Menu - узел дерева разрешений (таблица sys_menu)
type Menu struct {
	ID        int64    `json:"id" db:"id"`
	ParentID  int64    `json:"parent_id" db:"parent_id"`
	Name      string   `json:"name" db:"name"`
	Type      MenuType `json:"type" db:"type"`
	PermKey   string   `json:"perm_key,omitempty" db:"perm_key"`
	Path      string   `json:"path,omitempty" db:"path"`
	Icon      string   `json:"icon,omitempty" db:"icon"`
	Ancestors string   `json:"ancestors" db:"ancestors"`
	Sort      int      `json:"sort" db:"sort"`
	Visible   bool     `json:"visible" db:"visible"`
	Status    Status   `json:"status" db:"status"`
}

func (m Menu) GetID() int64         { return m.ID }
func (m Menu) GetParentID() int64   { return m.ParentID }
func (m Menu) GetAncestors() string { return m.Ancestors }

// Navigable - узел показывается в навигации (кнопки не показываются)
func (m Menu) Navigable() bool {
	return m.Visible && m.Status == StatusEnabled && m.Type != MenuTypeAction
}

// Dept - отдел (таблица sys_dept)
type Dept struct {
	ID        int64  `json:"id" db:"id"`
	ParentID  int64  `json:"parent_id" db:"parent_id"`
	Name      string `json:"name" db:"name"`
	Ancestors string `json:"ancestors" db:"ancestors"`
	Sort      int    `json:"sort" db:"sort"`
	Status    Status `json:"status" db:"status"`
}

func (d Dept) GetID() int64         { return d.ID }
func (d Dept) GetParentID() int64   { return d.ParentID }
func (d Dept) GetAncestors() string { return d.Ancestors }

// HierarchyNode - минимальная проекция узла для переноса в иерархии
type HierarchyNode struct {
	ID        int64
	ParentID  int64
	Ancestors string
}

func (n HierarchyNode) GetID() int64         { return n.ID }
func (n HierarchyNode) GetParentID() int64   { return n.ParentID }
func (n HierarchyNode) GetAncestors() string { return n.Ancestors }

// RefreshToken хранит refresh токен (таблица sys_refresh_token).
// В колонке token лежит SHA-256 от выданного значения, а не само значение.
type RefreshToken struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     int64     `json:"user_id" gorm:"not null;index"`
	Token      string    `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiryDate time.Time `json:"expiry_date" gorm:"not null"`
	Revoked    bool      `json:"revoked" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (RefreshToken) TableName() string {
	return "sys_refresh_token"
}

// Expired сообщает, истек ли срок действия токена на момент now
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiryDate)
}

// PermissionSet - снимок ролей и разрешений пользователя на момент вычисления
type PermissionSet struct {
	RoleIDs        []int64  `json:"-"`
	RoleCodes      []string `json:"roles"`
	PermissionKeys []string `json:"permissions"`
}

// IsSuper сообщает, содержит ли набор супер-роль
func (p *PermissionSet) IsSuper() bool {
	for _, code := range p.RoleCodes {
		if code == SuperRoleCode {
			return true
		}
	}
	return false
}
