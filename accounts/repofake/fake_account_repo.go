package fakeaccountrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arsalanrobotronics/famaserve-admin-backend/accounts"
)

var _ accounts.Repo = (*FakeAccountRepo)(nil)

type FakeAccountRepo struct {
	accounts    map[string]*accounts.Account
	usernameIds map[string]string // username to account id
	lock        sync.RWMutex
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{
		accounts:    make(map[string]*accounts.Account),
		usernameIds: make(map[string]string),
	}
}

func (ar *FakeAccountRepo) Create(_ context.Context, account *accounts.Account) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	copied := *account
	ar.accounts[copied.ID] = &copied
	ar.usernameIds[copied.Username] = copied.ID
	return nil
}

func (ar *FakeAccountRepo) GetByID(_ context.Context, id string) (*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	account, ok := ar.accounts[id]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (ar *FakeAccountRepo) GetByUsername(_ context.Context, username string) (*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	id, ok := ar.usernameIds[username]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	copied := *ar.accounts[id]
	return &copied, nil
}

func (ar *FakeAccountRepo) GetByEmail(_ context.Context, email string) (*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	for _, account := range ar.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, accounts.ErrNotFound
}

func (ar *FakeAccountRepo) List(_ context.Context, offset, limit int) ([]*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	accountList := make([]*accounts.Account, 0, len(ar.accounts))
	for _, v := range ar.accounts {
		copied := *v
		accountList = append(accountList, &copied)
	}

	sort.Slice(accountList, func(i, j int) bool {
		return accountList[i].ID < accountList[j].ID
	})

	if offset > len(accountList) {
		return nil, nil
	}
	end := offset + limit
	if end > len(accountList) {
		end = len(accountList)
	}
	return accountList[offset:end], nil
}

func (ar *FakeAccountRepo) Update(_ context.Context, id string, patch accounts.Patch) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	account, ok := ar.accounts[id]
	if !ok {
		return accounts.ErrNotFound
	}
	if patch.Username != nil && *patch.Username != account.Username {
		delete(ar.usernameIds, account.Username)
		ar.usernameIds[*patch.Username] = id
	}
	patch.Apply(account)
	account.UpdatedAt = time.Now()
	return nil
}

func (ar *FakeAccountRepo) UpdateSecret(_ context.Context, id string, hash string, history []string) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	account, ok := ar.accounts[id]
	if !ok {
		return accounts.ErrNotFound
	}
	account.PasswordHash = hash
	account.OldPasswordHashes = history
	account.UpdatedAt = time.Now()
	return nil
}

func (ar *FakeAccountRepo) IncrementLoginAttempts(_ context.Context, id string) (int, error) {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	account, ok := ar.accounts[id]
	if !ok {
		return 0, accounts.ErrNotFound
	}
	account.LoginAttempts++
	return account.LoginAttempts, nil
}

func (ar *FakeAccountRepo) SetLocked(_ context.Context, id string, at time.Time) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	account, ok := ar.accounts[id]
	if !ok {
		return accounts.ErrNotFound
	}
	account.LockedAt = &at
	return nil
}

func (ar *FakeAccountRepo) ResetLockout(_ context.Context, id string, loginAt time.Time) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	account, ok := ar.accounts[id]
	if !ok {
		return accounts.ErrNotFound
	}
	account.LoginAttempts = 0
	account.LockedAt = nil
	account.LoginAt = loginAt
	return nil
}

func (ar *FakeAccountRepo) UsernameTaken(_ context.Context, username, excludeID string) (bool, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	id, ok := ar.usernameIds[username]
	return ok && id != excludeID, nil
}

func (ar *FakeAccountRepo) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	for id, account := range ar.accounts {
		if account.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}
