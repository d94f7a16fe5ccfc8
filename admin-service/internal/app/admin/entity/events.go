package entity

import "time"

// AuthEventType - тип события аутентификации для топика auth_events
type AuthEventType string

const (
	AuthEventLoginSuccess    AuthEventType = "LOGIN_SUCCESS"
	AuthEventLoginFailed     AuthEventType = "LOGIN_FAILED"
	AuthEventLogout          AuthEventType = "LOGOUT"
	AuthEventTokenRefreshed  AuthEventType = "TOKEN_REFRESHED"
	AuthEventPasswordChanged AuthEventType = "PASSWORD_CHANGED"
	AuthEventSessionsRevoked AuthEventType = "SESSIONS_REVOKED"
)

// AuthEvent - событие безопасности. Username в LOGIN_FAILED маскируется.
type AuthEvent struct {
	EventID   string        `json:"event_id"`
	EventType AuthEventType `json:"event_type"`
	UserID    int64         `json:"user_id,omitempty"`
	Username  string        `json:"username,omitempty"`
	ActorID   int64         `json:"actor_id,omitempty"`
	ClientIP  string        `json:"client_ip,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
