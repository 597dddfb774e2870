// idp/client.go
package idp

import (
	"context"

	"github.com/smplabs/warden/model"
)

// Client is the minimal identity-provider capability set used on the hot
// authorization path.
type Client interface {
	// ValidateToken checks a bearer token against the provider and returns
	// the normalized identity. It never returns a partially valid
	// identity: any provider rejection or transport failure is an error.
	ValidateToken(ctx context.Context, token string) (*model.Identity, error)
	GetUserInfo(ctx context.Context, userID string) (*model.Identity, error)
	GetRoles(ctx context.Context, userID string) ([]string, error)
	AdminToken(ctx context.Context) (string, error)
}

// ExtendedClient adds the administrative capability surface. Operations
// without a concrete backing implementation return
// errors.ErrNotImplemented; this is an explicit seam, not a silent no-op.
type ExtendedClient interface {
	Client

	Login(ctx context.Context, username, password string) (*model.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*model.AuthResponse, error)
	Logout(ctx context.Context, token string) error

	CreateUser(ctx context.Context, user model.UserRecord) (string, error)
	UpdateUser(ctx context.Context, userID string, user model.UserRecord) error
	DeleteUser(ctx context.Context, userID string) error
	EnableUser(ctx context.Context, userID string) error
	DisableUser(ctx context.Context, userID string) error

	AssignRoles(ctx context.Context, userID string, roles []string) error
	RemoveRoles(ctx context.Context, userID string, roles []string) error

	AddUserToGroup(ctx context.Context, userID, groupID string) error
	RemoveUserFromGroup(ctx context.Context, userID, groupID string) error
	GetUserGroups(ctx context.Context, userID string) ([]string, error)

	GetUserSessions(ctx context.Context, userID string) ([]model.SessionInfo, error)
	LogoutAllSessions(ctx context.Context, userID string) error

	SearchUsers(ctx context.Context, query string, limit int) ([]model.UserRecord, error)
	GetUserByUsername(ctx context.Context, username string) (*model.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*model.UserRecord, error)

	HealthCheck(ctx context.Context) bool
}
