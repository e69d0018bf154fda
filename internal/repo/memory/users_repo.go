package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/noteflow/internal/domain/user"
)

type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User
	byEmail map[string]string // email -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.items[id], nil
}

func (r *UsersRepo) GetPublicByID(_ context.Context, id string) (user.Public, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.Public{}, user.ErrNotFound
	}

	return u.Public(), nil
}

// Delete removes a user. Only tests and local tooling use it.
func (r *UsersRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.items[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.items, id)
	}
}
