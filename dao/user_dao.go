// dao/user_dao.go
package dao

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	wderrors "github.com/smplabs/warden/errors"
	logger "github.com/smplabs/warden/logging"
	"github.com/smplabs/warden/model"
)

// UserDAO is the local user store. It mirrors provider identities so
// lookups survive provider outages; the provider stays the source of
// truth and rows are refreshed on every successful sync.
type UserDAO interface {
	GetUserByID(ctx context.Context, userID string) (*model.Identity, error)
	UpsertUser(ctx context.Context, identity *model.Identity) error
	DeleteUser(ctx context.Context, userID string) error
	SearchUsers(ctx context.Context, query string, limit int) ([]*model.Identity, error)
}

type PostgresUserDAO struct {
	db *sql.DB
}

var _ UserDAO = (*PostgresUserDAO)(nil)

func NewPostgresUserDAO(db *sql.DB) *PostgresUserDAO {
	return &PostgresUserDAO{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS auth_users (
    id               TEXT PRIMARY KEY,
    username         TEXT NOT NULL DEFAULT '',
    email            TEXT NOT NULL DEFAULT '',
    given_name       TEXT NOT NULL DEFAULT '',
    family_name      TEXT NOT NULL DEFAULT '',
    state            TEXT NOT NULL DEFAULT '',
    roles            JSONB NOT NULL DEFAULT '[]',
    organization_ids JSONB NOT NULL DEFAULT '[]',
    attributes       JSONB NOT NULL DEFAULT '{}',
    synced_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_auth_users_username ON auth_users (username);
CREATE INDEX IF NOT EXISTS idx_auth_users_email ON auth_users (email);
`

// EnsureSchema creates the user mirror table if it does not exist.
func (d *PostgresUserDAO) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: failed to create user schema: %v", wderrors.ErrDatabaseOperation, err)
	}
	return nil
}

func (d *PostgresUserDAO) GetUserByID(ctx context.Context, userID string) (*model.Identity, error) {
	const query = `
SELECT id, username, email, given_name, family_name, state, roles, organization_ids, attributes
FROM auth_users WHERE id = $1`

	var (
		identity model.Identity
		roles    []byte
		orgIDs   []byte
		attrs    []byte
	)
	err := d.db.QueryRowContext(ctx, query, userID).Scan(
		&identity.Sub,
		&identity.PreferredUsername,
		&identity.Email,
		&identity.GivenName,
		&identity.FamilyName,
		&identity.State,
		&roles,
		&orgIDs,
		&attrs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wderrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load user %s: %v", wderrors.ErrDatabaseOperation, userID, err)
	}

	if err := json.Unmarshal(roles, &identity.Roles); err != nil {
		return nil, fmt.Errorf("%w: corrupt roles for user %s: %v", wderrors.ErrDatabaseOperation, userID, err)
	}
	if err := json.Unmarshal(orgIDs, &identity.OrganizationIDs); err != nil {
		return nil, fmt.Errorf("%w: corrupt organization ids for user %s: %v", wderrors.ErrDatabaseOperation, userID, err)
	}
	if err := json.Unmarshal(attrs, &identity.Attributes); err != nil {
		return nil, fmt.Errorf("%w: corrupt attributes for user %s: %v", wderrors.ErrDatabaseOperation, userID, err)
	}
	return &identity, nil
}

func (d *PostgresUserDAO) UpsertUser(ctx context.Context, identity *model.Identity) error {
	if identity == nil || identity.Sub == "" {
		return fmt.Errorf("%w: identity has no subject", wderrors.ErrInvalidUserData)
	}

	roles, err := json.Marshal(identity.Roles)
	if err != nil {
		return fmt.Errorf("%w: %v", wderrors.ErrInvalidUserData, err)
	}
	orgIDs, err := json.Marshal(identity.OrganizationIDs)
	if err != nil {
		return fmt.Errorf("%w: %v", wderrors.ErrInvalidUserData, err)
	}
	attrs, err := json.Marshal(identity.Attributes)
	if err != nil {
		return fmt.Errorf("%w: %v", wderrors.ErrInvalidUserData, err)
	}

	const query = `
INSERT INTO auth_users (id, username, email, given_name, family_name, state, roles, organization_ids, attributes, synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    username = EXCLUDED.username,
    email = EXCLUDED.email,
    given_name = EXCLUDED.given_name,
    family_name = EXCLUDED.family_name,
    state = EXCLUDED.state,
    roles = EXCLUDED.roles,
    organization_ids = EXCLUDED.organization_ids,
    attributes = EXCLUDED.attributes,
    synced_at = EXCLUDED.synced_at`

	_, err = d.db.ExecContext(ctx, query,
		identity.Sub,
		identity.PreferredUsername,
		identity.Email,
		identity.GivenName,
		identity.FamilyName,
		identity.State,
		roles,
		orgIDs,
		attrs,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert user %s: %v", wderrors.ErrDatabaseOperation, identity.Sub, err)
	}

	logger.Debug("User mirrored to database", zap.String("userId", identity.Sub))
	return nil
}

func (d *PostgresUserDAO) DeleteUser(ctx context.Context, userID string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM auth_users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete user %s: %v", wderrors.ErrDatabaseOperation, userID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return wderrors.ErrUserNotFound
	}
	return nil
}

func (d *PostgresUserDAO) SearchUsers(ctx context.Context, query string, limit int) ([]*model.Identity, error) {
	if limit <= 0 {
		limit = 20
	}

	const stmt = `
SELECT id, username, email, given_name, family_name, state, roles, organization_ids, attributes
FROM auth_users
WHERE username ILIKE $1 OR email ILIKE $1
ORDER BY username
LIMIT $2`

	rows, err := d.db.QueryContext(ctx, stmt, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("%w: user search failed: %v", wderrors.ErrDatabaseOperation, err)
	}
	defer rows.Close()

	var identities []*model.Identity
	for rows.Next() {
		var (
			identity model.Identity
			roles    []byte
			orgIDs   []byte
			attrs    []byte
		)
		if err := rows.Scan(
			&identity.Sub,
			&identity.PreferredUsername,
			&identity.Email,
			&identity.GivenName,
			&identity.FamilyName,
			&identity.State,
			&roles,
			&orgIDs,
			&attrs,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", wderrors.ErrDatabaseOperation, err)
		}
		if err := json.Unmarshal(roles, &identity.Roles); err != nil {
			continue
		}
		if err := json.Unmarshal(orgIDs, &identity.OrganizationIDs); err != nil {
			continue
		}
		if err := json.Unmarshal(attrs, &identity.Attributes); err != nil {
			continue
		}
		identities = append(identities, &identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", wderrors.ErrDatabaseOperation, err)
	}
	return identities, nil
}
