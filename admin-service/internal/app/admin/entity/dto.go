package entity

// LoginRequest - запрос на вход
type LoginRequest struct {
	Username    string `json:"username" validate:"required,min=2,max=64"`
	Password    string `json:"password" validate:"required,max=128"`
	CaptchaID   string `json:"captcha_id" validate:"max=64"`
	CaptchaCode string `json:"captcha_code" validate:"max=16"`
}

// RefreshRequest - запрос на обмен refresh токена
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ChangePasswordRequest - смена собственного пароля
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72,nefield=OldPassword"`
}

// MoveNodeRequest - перенос узла меню или отдела под нового родителя
type MoveNodeRequest struct {
	ParentID *int64 `json:"parent_id" validate:"required,min=0"`
}

// UserSummary - публичные данные пользователя
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	DeptID   *int64 `json:"dept_id,omitempty"`
}

// TokenPair - access и refresh токены
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginResponse - ответ входа. Обмен refresh токена возвращает ту же структуру.
type LoginResponse struct {
	TokenPair
	User        UserSummary `json:"user"`
	Roles       []string    `json:"roles"`
	Permissions []string    `json:"permissions"`
}

// CaptchaResponse - капча для разработки
type CaptchaResponse struct {
	CaptchaID string `json:"captcha_id"`
	Code      string `json:"code"`
	ExpiresIn int64  `json:"expires_in"`
}

// MenuTreeNode - узел навигационного дерева
type MenuTreeNode struct {
	Menu
	Children []*MenuTreeNode `json:"children,omitempty"`
}

// DeptTreeNode - узел дерева отделов
type DeptTreeNode struct {
	Dept
	Children []*DeptTreeNode `json:"children,omitempty"`
}

// Response - единый формат ответа API
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}
