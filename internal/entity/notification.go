package entity

import "time"

type NotificationLevel string

const (
	LevelError   NotificationLevel = "error"
	LevelWarning NotificationLevel = "warning"
	LevelSuccess NotificationLevel = "success"
)

// Notification is a dismissible message kept by the gateway for a user.
type Notification struct {
	ID        string            `json:"id"`
	UserID    int               `json:"userId"`
	Level     NotificationLevel `json:"level"`
	Category  string            `json:"category"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Dismissed bool              `json:"dismissed"`
	CreatedAt time.Time         `json:"createdAt"`
}
