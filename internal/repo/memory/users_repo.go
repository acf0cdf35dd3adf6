package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/attendhub/attendhub/internal/domain/user"
)

type UsersRepo struct {
	mu        sync.RWMutex
	byID      map[string]user.User
	idByEmail map[string]string
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byID:      make(map[string]user.User),
		idByEmail: make(map[string]string),
	}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.idByEmail[email]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.byID[id], nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.byID))

	for _, u := range r.byID {
		out = append(out, u)
	}

	// stable ordering to match the postgres repo
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}

		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *UsersRepo) Insert(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.idByEmail[u.Email]; taken {
		return user.ErrEmailTaken
	}

	r.byID[u.ID] = u
	r.idByEmail[u.Email] = u.ID

	return nil
}

func (r *UsersRepo) CountByRole(ctx context.Context, role string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0

	for _, u := range r.byID {
		if u.Role == role {
			n++
		}
	}

	return n, nil
}
