package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserEntity is the entity name used in errors and logs.
const UserEntity = "User"

// Queryable user fields.
const (
	UserFieldID          Field = "id"
	UserFieldEmail       Field = "email"
	UserFieldUsername    Field = "username"
	UserFieldIsActive    Field = "is_active"
	UserFieldIsSuperuser Field = "is_superuser"
	UserFieldFirstName   Field = "first_name"
	UserFieldLastName    Field = "last_name"
	UserFieldCreatedAt   Field = "created_at"
	UserFieldUpdatedAt   Field = "updated_at"
	UserFieldDeletedAt   Field = "deleted_at"
)

type User struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	Username       *string    `db:"username" json:"username,omitempty"`
	HashedPassword string     `db:"hashed_password" json:"-"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	IsSuperuser    bool       `db:"is_superuser" json:"is_superuser"`
	FirstName      *string    `db:"first_name" json:"first_name,omitempty"`
	LastName       *string    `db:"last_name" json:"last_name,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// SoftDelete marks the user as deleted at now. The row is kept.
func (u *User) SoftDelete(now time.Time) {
	ts := now.UTC()
	u.DeletedAt = &ts
}

// CanAuthenticate reports whether the account may hold sessions.
func (u *User) CanAuthenticate() bool {
	return u.IsActive && !u.IsDeleted()
}

func (u *User) FullName() *string {
	var first, last string
	if u.FirstName != nil {
		first = *u.FirstName
	}
	if u.LastName != nil {
		last = *u.LastName
	}
	switch {
	case first != "" && last != "":
		full := first + " " + last
		return &full
	case first != "":
		return &first
	case last != "":
		return &last
	default:
		return nil
	}
}
