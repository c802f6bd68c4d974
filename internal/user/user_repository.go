package user

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/DhavalSuthar-24/stepsquad/internal/store"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// EnsureUser records the principal on first sight and returns the stored
	// user. An explicit role claim overrides the stored role.
	EnsureUser(ctx context.Context, p identity.Principal) (*User, error)
	GetUserByID(ctx context.Context, uid string) (*User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, uid string, role identity.Role) (*User, error)
	// Emails resolves display emails for a set of user ids. Unknown ids are
	// left out of the map.
	Emails(ctx context.Context, uids []string) (map[string]string, error)
}

type userRepository struct {
	store store.Store
	now   func() time.Time
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(s store.Store) UserRepository {
	return &userRepository{store: s, now: time.Now}
}

func (r *userRepository) EnsureUser(ctx context.Context, p identity.Principal) (*User, error) {
	var out User
	err := r.store.Update(ctx, store.Users, p.UserID, func(current []byte, exists bool) (interface{}, error) {
		now := r.now().UTC()
		if !exists {
			out = User{UserID: p.UserID, Email: p.Email, Role: p.Role, CreatedAt: now, UpdatedAt: now}
			return out, nil
		}
		if err := json.Unmarshal(current, &out); err != nil {
			return nil, err
		}
		changed := false
		if p.Email != "" && p.Email != out.Email {
			out.Email = p.Email
			changed = true
		}
		if p.RoleClaimed && p.Role != out.Role {
			out.Role = p.Role
			changed = true
		}
		if !changed {
			return nil, store.ErrSkipWrite
		}
		out.UpdatedAt = now
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, uid string) (*User, error) {
	var u User
	ok, err := r.store.Get(ctx, store.Users, uid, &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepository) GetAllUsers(ctx context.Context) ([]User, error) {
	docs, err := r.store.Query(ctx, store.Users)
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(docs))
	for _, d := range docs {
		var u User
		if err := d.Decode(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (r *userRepository) SetRole(ctx context.Context, uid string, role identity.Role) (*User, error) {
	var out *User
	err := r.store.Update(ctx, store.Users, uid, func(current []byte, exists bool) (interface{}, error) {
		if !exists {
			return nil, store.ErrSkipWrite
		}
		var u User
		if err := json.Unmarshal(current, &u); err != nil {
			return nil, err
		}
		u.Role = role
		u.UpdatedAt = r.now().UTC()
		out = &u
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepository) Emails(ctx context.Context, uids []string) (map[string]string, error) {
	emails := make(map[string]string, len(uids))
	for _, uid := range uids {
		u, err := r.GetUserByID(ctx, uid)
		if err != nil {
			return nil, err
		}
		if u != nil {
			emails[uid] = u.Email
		}
	}
	return emails, nil
}
