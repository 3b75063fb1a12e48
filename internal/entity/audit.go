package entity

type SecurityEventType string

const (
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventRegistration       SecurityEventType = "REGISTRATION"
	EventLogout             SecurityEventType = "LOGOUT"
	EventAccessDenied       SecurityEventType = "ACCESS_DENIED"
	EventTokenExpired       SecurityEventType = "TOKEN_EXPIRED"
	EventTokenInvalid       SecurityEventType = "TOKEN_INVALID"
	EventPasswordChange     SecurityEventType = "PASSWORD_CHANGE"
	EventOAuth2LoginSuccess SecurityEventType = "OAUTH2_LOGIN_SUCCESS"
	EventOAuth2LoginFailure SecurityEventType = "OAUTH2_LOGIN_FAILURE"
)

// AuditLog is a security audit entry recorded by the backend.
type AuditLog struct {
	ID        int64             `json:"id"`
	Username  string            `json:"username,omitempty"`
	EventType SecurityEventType `json:"eventType"`
	IPAddress string            `json:"ipAddress,omitempty"`
	UserAgent string            `json:"userAgent,omitempty"`
	Timestamp Timestamp         `json:"timestamp"`
	Details   string            `json:"details,omitempty"`
	Success   bool              `json:"success"`
}
