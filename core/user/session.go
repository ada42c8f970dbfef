package user

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
)

// ErrSessionNotFound means the user has no session entry; regardless of token
// validity they are treated as not logged in.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps a denormalized copy of the user profile in the cache,
// keyed by user ID. The entry is authoritative for session validity: deleting
// it logs the user out, and refresh fails without it. Entries carry no TTL;
// they live until logout or account deletion and are overwritten on every
// profile mutation (write-through).
type SessionStore struct {
	cache core.Cache
}

func NewSessionStore(cache core.Cache) *SessionStore {
	return &SessionStore{cache: cache}
}

func (s *SessionStore) Save(ctx context.Context, usr User) error {
	data, err := json.Marshal(usr)
	if err != nil {
		return errors.Wrap(err, "marshalling session profile")
	}
	return errors.Wrap(s.cache.Set(ctx, usr.ID, data, 0), "saving session")
}

func (s *SessionStore) Get(ctx context.Context, id string) (User, error) {
	data, err := s.cache.Get(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrCacheMiss) {
			return User{}, ErrSessionNotFound
		}
		return User{}, errors.Wrap(err, "getting session")
	}
	var usr User
	if err := json.Unmarshal(data, &usr); err != nil {
		return User{}, errors.Wrap(err, "unmarshalling session profile")
	}
	return usr, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return errors.Wrap(s.cache.Delete(ctx, id), "deleting session")
}
