package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// BunUsers is the persistent Users implementation backed by Bun. The model's
// soft_delete tag makes regular selects skip inactive rows; uniqueness checks
// opt back in with WhereAllWithDeleted so reserved emails stay reserved.
type BunUsers struct {
	db  *bun.DB
	now func() time.Time
}

var _ Users = (*BunUsers)(nil)

// NewBunUsers creates the repository on an initialized bun.DB.
func NewBunUsers(db *bun.DB) *BunUsers {
	return &BunUsers{db: db, now: time.Now}
}

// Init creates the users table when missing. Safe to call on every start.
func (r *BunUsers) Init(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create users table")
	}
	return nil
}

// EnsureSeed inserts the record if no row — active or deleted — holds its
// email yet. Used to guarantee the primary admin exists.
func (r *BunUsers) EnsureSeed(ctx context.Context, record *User) error {
	email := NormalizeEmail(record.Email)

	exists, err := r.db.NewSelect().
		Model((*User)(nil)).
		WhereAllWithDeleted().
		Where("email = ?", email).
		Exists(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to check seed user")
	}
	if exists {
		return nil
	}

	record.Email = email
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to insert seed user")
	}
	return nil
}

func (r *BunUsers) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to query user by email")
	}
	return user, nil
}

func (r *BunUsers) FindByID(ctx context.Context, id int64) (*User, error) {
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("usr.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to query user by id")
	}
	return user, nil
}

func (r *BunUsers) ListActive(ctx context.Context) ([]*User, error) {
	var users []*User
	err := r.db.NewSelect().
		Model(&users).
		Order("usr.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list users")
	}
	return users, nil
}

func (r *BunUsers) Create(ctx context.Context, data UserData) (*User, error) {
	email := NormalizeEmail(data.Email)

	hash, err := HashPassword(data.Password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
	}

	taken, err := r.emailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	now := r.now()
	record := &User{
		Name:         strings.TrimSpace(data.Name),
		Email:        email,
		Role:         data.Role,
		PasswordHash: hash,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to insert user")
	}

	return record, nil
}

func (r *BunUsers) Update(ctx context.Context, id int64, data UserUpdate) (*User, error) {
	record, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data.Email != nil {
		email := NormalizeEmail(*data.Email)
		taken, err := r.emailTaken(ctx, email, id)
		if err != nil {
			return nil, err
		}
		if taken {
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
		hash, err := HashPassword(*data.Password)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
		}
		record.PasswordHash = hash
	}

	now := r.now()
	record.UpdatedAt = &now

	if _, err := r.db.NewUpdate().Model(record).WherePK().Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update user")
	}

	return record, nil
}

func (r *BunUsers) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*User)(nil)).
		Where("usr.id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete user")
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *BunUsers) emailTaken(ctx context.Context, email string, exclude int64) (bool, error) {
	q := r.db.NewSelect().
		Model((*User)(nil)).
		WhereAllWithDeleted().
		Where("email = ?", email)
	if exclude != 0 {
		q = q.Where("usr.id != ?", exclude)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check email uniqueness")
	}
	return exists, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
