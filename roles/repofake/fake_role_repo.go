package fakerolerepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/arsalanrobotronics/famaserve-admin-backend/roles"
)

var _ roles.Repo = (*FakeRoleRepo)(nil)

type FakeRoleRepo struct {
	roles map[string]*roles.Role
	lock  sync.RWMutex
}

func NewFakeRoleRepo() *FakeRoleRepo {
	return &FakeRoleRepo{
		roles: make(map[string]*roles.Role),
	}
}

func (rr *FakeRoleRepo) Upsert(_ context.Context, role *roles.Role) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	rr.roles[role.ID] = role
	return nil
}

func (rr *FakeRoleRepo) Get(_ context.Context, id string) (*roles.Role, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	role, ok := rr.roles[id]
	if !ok {
		return nil, roles.ErrNotFound
	}
	return role, nil
}

func (rr *FakeRoleRepo) GetByTitle(_ context.Context, title string) (*roles.Role, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	for _, role := range rr.roles {
		if role.Title == title {
			return role, nil
		}
	}
	return nil, roles.ErrNotFound
}

func (rr *FakeRoleRepo) List(_ context.Context, offset, limit int) ([]*roles.Role, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	roleList := make([]*roles.Role, 0, len(rr.roles))
	for _, v := range rr.roles {
		roleList = append(roleList, v)
	}

	sort.Slice(roleList, func(i, j int) bool {
		return roleList[i].ID < roleList[j].ID
	})

	if offset > len(roleList) {
		return nil, nil
	}
	end := offset + limit
	if end > len(roleList) {
		end = len(roleList)
	}
	return roleList[offset:end], nil
}
