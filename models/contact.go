package models

import (
	"time"
)

// Contact submission statuses
const (
	ContactStatusNew      = "new"
	ContactStatusRead     = "read"
	ContactStatusReplied  = "replied"
	ContactStatusResolved = "resolved"
)

// Contact is a contact-form submission. Pure intake record; the status field
// is only ever touched by back-office moderation.
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Phone     string    `gorm:"not null" json:"phone"`
	Message   string    `gorm:"not null" json:"message"`
	ImageKey  string    `json:"image_key"`
	Status    string    `gorm:"not null;default:'new'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Contact model
func (Contact) TableName() string {
	return "contacts"
}

// IsValidContactStatus reports whether the given status is an allowed contact status
func IsValidContactStatus(status string) bool {
	switch status {
	case ContactStatusNew, ContactStatusRead, ContactStatusReplied, ContactStatusResolved:
		return true
	}
	return false
}
