package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User represents a member of the campus lost-and-found platform.
//
// A user record is created lazily on first successful identity-provider
// verification, or explicitly through legacy registration. ExternalID holds
// the identity-provider subject and is nil until the account is linked.
// Note that a User with Role "admin" is a separate representation from the
// legacy Admin record: both can exist for the same email and are never
// reconciled automatically.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID *string   `gorm:"uniqueIndex" json:"external_id"`
	Name       string    `gorm:"not null" json:"name"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Password   string    `json:"-"`
	Role       string    `gorm:"not null;default:'member'" json:"role"`
	StudentID  string    `json:"student_id"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// SetPassword hashes and stores the given plaintext password
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword compares a plaintext password against the stored hash
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
