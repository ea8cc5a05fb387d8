package notification

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// TokenStore reads device tokens with plain SQL; it shares the connection
// pool with the rest of the application.
type TokenStore struct {
	db *sqlx.DB
}

func NewTokenStore(db *sqlx.DB) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) TokensForUsers(ctx context.Context, usernames []string) ([]string, error) {
	if len(usernames) == 0 {
		return []string{}, nil
	}
	query, args, err := sqlx.In(`SELECT DISTINCT d.token
		FROM device_tokens d
		JOIN users u ON u.id = d.user_id
		WHERE u.username IN (?)
		ORDER BY d.token`, usernames)
	if err != nil {
		return nil, err
	}
	tokens := []string{}
	if err := s.db.SelectContext(ctx, &tokens, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *TokenStore) TokensForGroup(ctx context.Context, groupID int64) ([]string, error) {
	tokens := []string{}
	err := s.db.SelectContext(ctx, &tokens, s.db.Rebind(`SELECT DISTINCT d.token
		FROM device_tokens d
		JOIN user_groups ug ON ug.user_id = d.user_id
		WHERE ug.group_id = ?
		ORDER BY d.token`), groupID)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}
