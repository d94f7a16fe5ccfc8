package entity

import (
	"strconv"
	"time"
)

// RefreshToken - строка таблицы sys_refresh_token, общей с admin-service
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

// UserEvent - событие жизненного цикла пользователя из топика user_events
type UserEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventTypeUserDisabled    = "USER_DISABLED"
	EventTypeUserDeleted     = "USER_DELETED"
	EventTypePasswordChanged = "PASSWORD_CHANGED"
)

// RequiresRevocation сообщает, должен ли тип события завершить все сессии пользователя
func RequiresRevocation(eventType string) bool {
	switch eventType {
	case EventTypeUserDisabled, EventTypeUserDeleted, EventTypePasswordChanged:
		return true
	}
	return false
}

const (
	// RedisKeyPrefixUserBlock совпадает с ключом, который проверяет admin-service
	RedisKeyPrefixUserBlock = "blacklist:user:"
)

func GetRedisKeyForUserBlock(userID int64) string {
	return RedisKeyPrefixUserBlock + strconv.FormatInt(userID, 10)
}
