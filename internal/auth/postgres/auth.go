package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/auth"
	"github.com/jmoiron/sqlx"
)

// Repository serves the authentication read path with hand-written queries.
// Queries use "?" placeholders and are rebound for the active driver.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

const resolvePermissionsQuery = `SELECT DISTINCT p.name
	FROM permissions p
	JOIN group_permissions gp ON gp.permission_id = p.id
	JOIN user_groups ug ON ug.group_id = gp.group_id
	JOIN users u ON u.id = ug.user_id
	WHERE u.username = ?
	ORDER BY p.name`

func (r *Repository) GetCredentialsByUsername(ctx context.Context, username string) (*auth.Credentials, error) {
	return r.getCredentials(ctx, `SELECT id, username, password_hash, phone_canonical FROM users WHERE username = ?`, username)
}

func (r *Repository) GetCredentialsByPhone(ctx context.Context, canonicalPhone string) (*auth.Credentials, error) {
	return r.getCredentials(ctx, `SELECT id, username, password_hash, phone_canonical FROM users WHERE phone_canonical = ?`, canonicalPhone)
}

func (r *Repository) getCredentials(ctx context.Context, query string, arg interface{}) (*auth.Credentials, error) {
	var creds auth.Credentials
	if err := r.db.GetContext(ctx, &creds, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &creds, nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*internal.User, error) {
	var row struct {
		ID       int64  `db:"id"`
		Username string `db:"username"`
	}
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT id, username FROM users WHERE id = ?`), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &internal.User{ID: row.ID, Username: row.Username}, nil
}

// ResolvePermissions returns the union of permission names granted to every
// group the user belongs to. A user without memberships gets an empty set.
func (r *Repository) ResolvePermissions(ctx context.Context, username string) ([]string, error) {
	permissions := []string{}
	if err := r.db.SelectContext(ctx, &permissions, r.db.Rebind(resolvePermissionsQuery), username); err != nil {
		return nil, err
	}
	return permissions, nil
}

func (r *Repository) MarkPhoneVerified(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET phone_verified = ? WHERE id = ?`), true, userID)
	return err
}
