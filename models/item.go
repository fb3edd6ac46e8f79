package models

import (
	"time"
)

// Item kinds
const (
	KindLost  = "lost"
	KindFound = "found"
)

// Item statuses
const (
	ItemStatusActive   = "active"
	ItemStatusClaimed  = "claimed"
	ItemStatusResolved = "resolved"
)

// Categories lists the allowed item categories
var Categories = []string{
	"Electronics",
	"ID Card",
	"Books",
	"Clothing",
	"Accessories",
	"Keys",
	"Wallet",
	"Bags",
	"Stationery",
	"Others",
}

// Item is a lost or found report in the shared catalog.
//
// PostedBy is an opaque reference: the poster's identity-provider subject,
// a legacy numeric user id, or the literal "admin" for back-office posts.
// The store does not enforce referential integrity on it.
type Item struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Kind         string    `gorm:"not null;index" json:"type"`
	Title        string    `gorm:"not null" json:"title"`
	Description  string    `gorm:"not null" json:"description"`
	Category     string    `gorm:"not null;index" json:"category"`
	ImageKey     string    `json:"image_key"`
	Location     string    `gorm:"not null" json:"location"`
	Date         time.Time `gorm:"not null" json:"date"`
	PostedBy     string    `gorm:"not null;index;default:'admin'" json:"posted_by"`
	Status       string    `gorm:"not null;index;default:'active'" json:"status"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Item model
func (Item) TableName() string {
	return "items"
}

// IsValidCategory reports whether the given category is one of the allowed values
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// IsValidKind reports whether the given kind is "lost" or "found"
func IsValidKind(kind string) bool {
	return kind == KindLost || kind == KindFound
}

// IsValidItemStatus reports whether the given status is an allowed item status
func IsValidItemStatus(status string) bool {
	return status == ItemStatusActive || status == ItemStatusClaimed || status == ItemStatusResolved
}
