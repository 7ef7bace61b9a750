// Package usertest provides an in-memory user.Repository for service tests.
package usertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/kernel"
)

// Repository keeps users in a map and applies the same tenant and
// conditional-update rules as the Postgres implementation.
type Repository struct {
	mu    sync.Mutex
	users map[kernel.UserID]user.User
}

func NewRepository(users ...*user.User) *Repository {
	r := &Repository{users: make(map[kernel.UserID]user.User)}
	for _, u := range users {
		r.users[u.ID] = *u
	}
	return r
}

var _ user.Repository = (*Repository)(nil)

// Get returns a copy of the stored row regardless of tenant.
func (r *Repository) Get(id kernel.UserID) (user.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return u, ok
}

func (r *Repository) FindByID(_ context.Context, id kernel.UserID, tenantID kernel.TenantID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.TenantID != tenantID {
		return nil, user.ErrUserNotFound()
	}
	return &u, nil
}

func (r *Repository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	return r.findBy(func(u user.User) bool { return u.Email == email })
}

func (r *Repository) FindByUsername(_ context.Context, username string) (*user.User, error) {
	return r.findBy(func(u user.User) bool { return u.Username == username })
}

func (r *Repository) findBy(match func(user.User) bool) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (r *Repository) ListByTenant(_ context.Context, tenantID kernel.TenantID) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*user.User
	for _, u := range r.users {
		if u.TenantID == tenantID {
			found := u
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *Repository) ExistsByEmail(_ context.Context, email string, excludeID kernel.UserID) (bool, error) {
	u, err := r.findBy(func(u user.User) bool { return u.Email == email && u.ID != excludeID })
	return u != nil && err == nil, nil
}

func (r *Repository) ExistsByUsername(_ context.Context, username string, excludeID kernel.UserID) (bool, error) {
	u, err := r.findBy(func(u user.User) bool { return u.Username == username && u.ID != excludeID })
	return u != nil && err == nil, nil
}

func (r *Repository) Create(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.ErrEmailAlreadyExists()
		}
		if existing.Username == u.Username {
			return user.ErrUsernameAlreadyExists()
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *Repository) UpdateProfile(_ context.Context, u user.User) error {
	return r.mutate(u.ID, u.TenantID, func(stored *user.User) bool {
		stored.Name, stored.Email, stored.Username, stored.Role = u.Name, u.Email, u.Username, u.Role
		stored.UpdatedAt = u.UpdatedAt
		return true
	})
}

func (r *Repository) SetActive(_ context.Context, id kernel.UserID, tenantID kernel.TenantID, active bool) error {
	return r.mutate(id, tenantID, func(stored *user.User) bool {
		stored.IsActive = active
		return true
	})
}

func (r *Repository) Delete(_ context.Context, id kernel.UserID, tenantID kernel.TenantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.TenantID != tenantID {
		return user.ErrUserNotFound()
	}
	delete(r.users, id)
	return nil
}

func (r *Repository) IssueSecureCode(_ context.Context, id kernel.UserID, tenantID kernel.TenantID, codeHash string, sentAt time.Time) (bool, error) {
	updated := false
	err := r.mutate(id, tenantID, func(stored *user.User) bool {
		if stored.PasswordHash != nil {
			return false
		}
		stored.SecureCode = &codeHash
		stored.InviteSentAt = &sentAt
		stored.IsFirstLogin = true
		updated = true
		return true
	})
	if err != nil && !updated {
		return false, nil
	}
	return updated, err
}

func (r *Repository) SetFirstPassword(_ context.Context, id kernel.UserID, tenantID kernel.TenantID, passwordHash, expectedCodeHash string) (bool, error) {
	updated := false
	_ = r.mutate(id, tenantID, func(stored *user.User) bool {
		if stored.PasswordHash != nil || stored.SecureCode == nil || *stored.SecureCode != expectedCodeHash {
			return false
		}
		stored.PasswordHash = &passwordHash
		stored.SecureCode = nil
		stored.IsFirstLogin = false
		updated = true
		return true
	})
	return updated, nil
}

func (r *Repository) UpdatePassword(_ context.Context, id kernel.UserID, tenantID kernel.TenantID, passwordHash string) error {
	return r.mutate(id, tenantID, func(stored *user.User) bool {
		stored.PasswordHash = &passwordHash
		stored.SecureCode = nil
		stored.IsFirstLogin = false
		return true
	})
}

// mutate applies fn under the lock; fn returning false means no row matched.
func (r *Repository) mutate(id kernel.UserID, tenantID kernel.TenantID, fn func(*user.User) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.TenantID != tenantID {
		return user.ErrUserNotFound()
	}
	if !fn(&u) {
		return user.ErrUserNotFound()
	}
	r.users[id] = u
	return nil
}
