// Package inmemdb provides in-memory repositories backing the core services
// in tests.
package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/somahq/soma/core/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	users []user.User
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(users ...user.User) *UserRepository {
	return &UserRepository{users: users}
}

func (repo *UserRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.mu.Lock()
	repo.users = append(repo.users, usr)
	repo.mu.Unlock()
	return usr, nil
}

func (repo *UserRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, usr := range repo.users {
		if usr.ID == id {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *UserRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, usr := range repo.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *UserRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	users := make([]user.User, 0, len(repo.users))
	for i := len(repo.users) - 1; i >= 0; i-- { // newest first
		users = append(users, repo.users[i])
	}
	return users, nil
}

func (repo *UserRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for i := range repo.users {
		if repo.users[i].ID == usr.ID {
			repo.users[i] = usr
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *UserRepository) DeleteUserByID(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for i := range repo.users {
		if repo.users[i].ID == id {
			repo.users = append(repo.users[:i], repo.users[i+1:]...)
			return nil
		}
	}
	return user.ErrNotFound
}

func (repo *UserRepository) CountUsersCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var count int64
	for _, usr := range repo.users {
		if inRange(usr.CreatedAt, from, to) {
			count++
		}
	}
	return count, nil
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
