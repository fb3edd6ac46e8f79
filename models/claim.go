package models

import (
	"time"
)

// Claim statuses
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// Claim is a member's assertion of ownership over an item.
//
// At most one claim may exist per (item, claimant) pair, and the claimant
// must not be the item's poster. Approving a claim flips the parent item's
// status to "claimed".
type Claim struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	ItemID              uint       `gorm:"not null;uniqueIndex:idx_claims_item_claimant" json:"item_id"`
	ClaimantRef         string     `gorm:"not null;uniqueIndex:idx_claims_item_claimant;index" json:"claimant_ref"`
	Message             string     `gorm:"not null" json:"message"`
	Status              string     `gorm:"not null;default:'pending'" json:"status"`
	VerificationDetails string     `json:"verification_details"`
	CreatedAt           time.Time  `json:"created_at"`
	ResolvedAt          *time.Time `json:"resolved_at"`
}

// TableName specifies the table name for the Claim model
func (Claim) TableName() string {
	return "claims"
}

// IsValidClaimStatus reports whether the given status is an allowed claim status
func IsValidClaimStatus(status string) bool {
	return status == ClaimStatusPending || status == ClaimStatusApproved || status == ClaimStatusRejected
}
