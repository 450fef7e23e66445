package push

import (
	"context"
	"errors"

	"github.com/lysyi3m/news-relay/app/prefs"
)

const (
	TokenNamespace = "FirebasePrefs"
	TokenKey       = "fcm_token"
)

var ErrEmptyToken = errors.New("push token is empty")

// TokenStore persists the single device push token. It never touches the
// network.
type TokenStore struct {
	store prefs.Store
}

func NewTokenStore(store prefs.Store) *TokenStore {
	return &TokenStore{store: store}
}

// GetToken reports false when no token has been saved yet.
func (s *TokenStore) GetToken(ctx context.Context) (string, bool, error) {
	return s.store.Get(ctx, TokenNamespace, TokenKey)
}

// SaveToken replaces any previously saved token.
func (s *TokenStore) SaveToken(ctx context.Context, token string) error {
	return s.store.Set(ctx, TokenNamespace, TokenKey, token)
}
