package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the aggregate root for the identity domain.
// HashedPassword is always produced by the password hasher, never by callers.
type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
	IsVerified     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserCreate is the registration payload. Flags are only honoured on the privileged path.
type UserCreate struct {
	Email       string
	Password    string
	IsActive    *bool
	IsSuperuser *bool
	IsVerified  *bool
}

// UserUpdate carries optional changes; nil means untouched.
type UserUpdate struct {
	Email       *string
	Password    *string
	IsActive    *bool
	IsSuperuser *bool
	IsVerified  *bool
}

// NewUser is the field set written by a store on create.
type NewUser struct {
	Email          string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
	IsVerified     bool
}

// UserChanges is a field-level overwrite applied by a store on update.
type UserChanges struct {
	Email          *string
	HashedPassword *string
	IsActive       *bool
	IsSuperuser    *bool
	IsVerified     *bool
}

// IsEmpty reports whether no field is set.
func (c UserChanges) IsEmpty() bool {
	return c.Email == nil && c.HashedPassword == nil && c.IsActive == nil && c.IsSuperuser == nil && c.IsVerified == nil
}

// Fields returns the names of the set fields in a stable order.
func (c UserChanges) Fields() []string {
	out := make([]string, 0, 5)
	if c.Email != nil {
		out = append(out, "email")
	}
	if c.HashedPassword != nil {
		out = append(out, "password")
	}
	if c.IsActive != nil {
		out = append(out, "is_active")
	}
	if c.IsSuperuser != nil {
		out = append(out, "is_superuser")
	}
	if c.IsVerified != nil {
		out = append(out, "is_verified")
	}
	return out
}

// Apply copies the set fields onto u.
func (c UserChanges) Apply(u *User) {
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.HashedPassword != nil {
		u.HashedPassword = *c.HashedPassword
	}
	if c.IsActive != nil {
		u.IsActive = *c.IsActive
	}
	if c.IsSuperuser != nil {
		u.IsSuperuser = *c.IsSuperuser
	}
	if c.IsVerified != nil {
		u.IsVerified = *c.IsVerified
	}
}
