package fakesessionstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/arsalanrobotronics/famaserve-admin-backend/sessions"
)

var _ sessions.Store = (*FakeSessionStore)(nil)

type FakeSessionStore struct {
	sessions map[string]*sessions.Session
	grants   map[string]*sessions.RefreshGrant // keyed by grant id
	lock     sync.RWMutex
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{
		sessions: make(map[string]*sessions.Session),
		grants:   make(map[string]*sessions.RefreshGrant),
	}
}

func (ss *FakeSessionStore) CreateSession(_ context.Context, session *sessions.Session) error {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	copied := *session
	ss.sessions[copied.ID] = &copied
	return nil
}

func (ss *FakeSessionStore) GetSession(_ context.Context, id string) (*sessions.Session, error) {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	session, ok := ss.sessions[id]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (ss *FakeSessionStore) DeleteSession(_ context.Context, id string) error {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	if _, ok := ss.sessions[id]; !ok {
		return sessions.ErrNotFound
	}
	delete(ss.sessions, id)
	for grantID, grant := range ss.grants {
		if grant.SessionID == id {
			delete(ss.grants, grantID)
		}
	}
	return nil
}

func (ss *FakeSessionStore) CountActive(_ context.Context, accountID string) (int, error) {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	count := 0
	for _, session := range ss.sessions {
		if session.AccountID == accountID && !session.Revoked() {
			count++
		}
	}
	return count, nil
}

func (ss *FakeSessionStore) CountActiveByChannel(_ context.Context, accountID, channel string) (int, error) {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	count := 0
	for _, session := range ss.sessions {
		if session.AccountID == accountID && session.Channel == channel && !session.Revoked() {
			count++
		}
	}
	return count, nil
}

func (ss *FakeSessionStore) OldestSession(_ context.Context, accountID, channel string) (*sessions.Session, error) {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	var oldest *sessions.Session
	for _, session := range ss.sessions {
		if session.AccountID != accountID || session.Channel != channel || session.Revoked() {
			continue
		}
		if oldest == nil || session.CreatedAt.Before(oldest.CreatedAt) {
			oldest = session
		}
	}
	if oldest == nil {
		return nil, nil
	}
	copied := *oldest
	return &copied, nil
}

func (ss *FakeSessionStore) CreateRefreshGrant(_ context.Context, grant *sessions.RefreshGrant) error {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}
	copied := *grant
	ss.grants[copied.ID] = &copied
	return nil
}

func (ss *FakeSessionStore) GetRefreshGrantByToken(_ context.Context, token string) (*sessions.RefreshGrant, error) {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	for _, grant := range ss.grants {
		if grant.Token == token {
			copied := *grant
			return &copied, nil
		}
	}
	return nil, sessions.ErrNotFound
}

// GrantCount reports the number of stored refresh grants. Test helper for
// asserting the cascade delete.
func (ss *FakeSessionStore) GrantCount() int {
	ss.lock.RLock()
	defer ss.lock.RUnlock()
	return len(ss.grants)
}
