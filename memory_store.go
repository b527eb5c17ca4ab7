package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// MemoryStore is a mutex-guarded in-memory Users implementation, the default
// pseudo-database for development and tests. Records are cloned on the way in
// and out so callers never share mutable state with the store.
type MemoryStore struct {
	mu     sync.Mutex
	users  map[int64]*User
	nextID int64
	now    func() time.Time
}

var _ Users = (*MemoryStore)(nil)

// NewMemoryStore seeds the store with the given records. Records without an
// ID are assigned the next sequential one; PasswordHash is expected to be set
// already (see HashPassword).
func NewMemoryStore(seed ...*User) *MemoryStore {
	s := &MemoryStore{
		users:  make(map[int64]*User),
		nextID: 1,
		now:    time.Now,
	}

	for _, u := range seed {
		record := cloneUser(u)
		if record.ID == 0 {
			record.ID = s.nextID
		}
		if record.ID >= s.nextID {
			s.nextID = record.ID + 1
		}
		record.Email = NormalizeEmail(record.Email)
		if record.CreatedAt == nil {
			now := s.now()
			record.CreatedAt = &now
			record.UpdatedAt = &now
		}
		s.users[record.ID] = record
	}

	return s
}

// WithClock overrides the store's time source, useful for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *MemoryStore) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Active() && u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || !u.Active() {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) ListActive(ctx context.Context) ([]*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		if u.Active() {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, data UserData) (*User, error) {
	email := NormalizeEmail(data.Email)

	hash, err := HashPassword(data.Password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Soft-deleted records keep their email reserved.
	if s.emailTaken(email, 0) {
		return nil, ErrDuplicateEmail
	}

	now := s.now()
	record := &User{
		ID:           s.nextID,
		Name:         strings.TrimSpace(data.Name),
		Email:        email,
		Role:         data.Role,
		PasswordHash: hash,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
	s.nextID++
	s.users[record.ID] = record

	return cloneUser(record), nil
}

func (s *MemoryStore) Update(ctx context.Context, id int64, data UserUpdate) (*User, error) {
	var hash string
	if data.Password != nil {
		h, err := HashPassword(*data.Password)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.users[id]
	if !ok || !record.Active() {
		return nil, ErrUserNotFound
	}

	if data.Email != nil {
		email := NormalizeEmail(*data.Email)
		if s.emailTaken(email, id) {
			return nil, ErrDuplicateEmail
		}
		record.Email = email
	}
	if data.Name != nil {
		record.Name = strings.TrimSpace(*data.Name)
	}
	if data.Role != nil {
		record.Role = *data.Role
	}
	if data.Password != nil {
		record.PasswordHash = hash
	}

	now := s.now()
	record.UpdatedAt = &now

	return cloneUser(record), nil
}

func (s *MemoryStore) SoftDelete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.users[id]
	if !ok || !record.Active() {
		return ErrUserNotFound
	}

	now := s.now()
	record.DeletedAt = &now
	record.UpdatedAt = &now
	return nil
}

// emailTaken must be called with the lock held. exclude skips the record
// being updated so a user can keep their own address.
func (s *MemoryStore) emailTaken(email string, exclude int64) bool {
	for _, u := range s.users {
		if u.ID == exclude {
			continue
		}
		if u.Email == email {
			return true
		}
	}
	return false
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
