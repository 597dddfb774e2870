// model/event.go
package model

// Event types recorded in the decision log.
const (
	EventLogin           = "login"
	EventLogout          = "logout"
	EventTokenValidation = "token_validation"
	EventTokenRefresh    = "token_refresh"
	EventAuthorization   = "authorization"
	EventCacheInvalidate = "cache_invalidation"
	EventUserSync        = "sync"
	EventUserCreation    = "user_creation"
	EventRoleAssignment  = "role_assignment"
	EventError           = "error"
)

// AuthEvent is one entry in the append-only decision/authentication
// journal.
type AuthEvent struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	UserID       string         `json:"userId,omitempty"`
	Username     string         `json:"username,omitempty"`
	ResourceID   string         `json:"resourceId,omitempty"`
	ResourceType string         `json:"resourceType,omitempty"`
	Action       string         `json:"action,omitempty"`
	Allow        bool           `json:"allow"`
	Success      bool           `json:"success"`
	Reason       string         `json:"reason,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
	Error        string         `json:"error,omitempty"`
	DurationMs   int64          `json:"durationMs,omitempty"`
	Timestamp    string         `json:"timestamp"`
}
