package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/middleware"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/models"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
)

// CreateClaimRequest represents the request body for submitting a claim
type CreateClaimRequest struct {
	ItemID              uint   `json:"item_id" binding:"required"`
	Message             string `json:"message" binding:"required,max=500"`
	VerificationDetails string `json:"verification_details" binding:"omitempty,max=500"`
}

// UpdateClaimRequest represents the request body for resolving a claim
type UpdateClaimRequest struct {
	Status              string `json:"status" binding:"required"`
	VerificationDetails string `json:"verification_details" binding:"omitempty,max=500"`
}

// CreateClaim handles POST /api/claims - submits a claim against an item
func CreateClaim(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	var item models.Item
	if err := db.First(&item, req.ItemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ITEM_NOT_FOUND",
				"message": "Item not found",
			},
		})
		return
	}

	if item.Status != models.ItemStatusActive {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ITEM_NOT_AVAILABLE",
				"message": "This item is no longer available for claims",
			},
		})
		return
	}

	if item.PostedBy == identity.Ref() {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SELF_CLAIM",
				"message": "You cannot claim your own item",
			},
		})
		return
	}

	var existing models.Claim
	dupErr := db.Where("item_id = ? AND claimant_ref = ?", item.ID, identity.Ref()).First(&existing).Error
	if dupErr == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DUPLICATE_CLAIM",
				"message": "You have already submitted a claim for this item",
			},
		})
		return
	}
	if !errors.Is(dupErr, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": dupErr.Error(),
			},
		})
		return
	}

	claim := models.Claim{
		ItemID:              item.ID,
		ClaimantRef:         identity.Ref(),
		Message:             req.Message,
		VerificationDetails: req.VerificationDetails,
		Status:              models.ClaimStatusPending,
	}

	if err := db.Create(&claim).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	// Notify the poster, best-effort
	notifyPoster(&item, identity, req.Message)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Claim submitted successfully",
		"data":    claim,
	})
}

// notifyPoster emails the item's poster about a new claim. Failures are
// logged and swallowed.
func notifyPoster(item *models.Item, claimant *middleware.Identity, message string) {
	emailService := services.GetEmailService()
	if emailService == nil || item.ContactEmail == "" || claimant.User == nil {
		return
	}

	subject, html := services.ClaimAlertEmail(item, claimant.User, message)
	if err := emailService.Send(item.ContactEmail, subject, html); err != nil {
		log.Printf("Claim alert email failed: %v", err)
	}
}

// GetMyClaims handles GET /api/claims/my - lists the caller's claims
func GetMyClaims(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	db := config.GetDB()
	var claims []models.Claim
	if err := db.Where("claimant_ref = ?", identity.Ref()).Order("created_at DESC").Find(&claims).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(claims),
		"data":    claims,
	})
}

// GetItemClaims handles GET /api/claims/item/:itemId - lists claims on an
// item, visible to the item's poster and admins only
func GetItemClaims(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	db := config.GetDB()
	var item models.Item
	if err := db.First(&item, c.Param("itemId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ITEM_NOT_FOUND",
				"message": "Item not found",
			},
		})
		return
	}

	if item.PostedBy != identity.Ref() && !identity.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Not authorized to view claims for this item",
			},
		})
		return
	}

	var claims []models.Claim
	if err := db.Where("item_id = ?", item.ID).Order("created_at DESC").Find(&claims).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(claims),
		"data":    claims,
	})
}

// UpdateClaimStatus handles PUT /api/claims/:id - approves or rejects a
// claim (item poster or admin). Approving a claim flips the parent item to
// "claimed" in the same transaction, so no reader observes an approved claim
// against a still-active item.
func UpdateClaimStatus(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	var req UpdateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}
	if !models.IsValidClaimStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid claim status",
			},
		})
		return
	}

	db := config.GetDB()
	var claim models.Claim
	if err := db.First(&claim, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLAIM_NOT_FOUND",
				"message": "Claim not found",
			},
		})
		return
	}

	var item models.Item
	if err := db.First(&item, claim.ItemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ITEM_NOT_FOUND",
				"message": "Item not found",
			},
		})
		return
	}

	if item.PostedBy != identity.Ref() && !identity.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Not authorized to update this claim",
			},
		})
		return
	}

	claim.Status = req.Status
	if req.VerificationDetails != "" {
		claim.VerificationDetails = req.VerificationDetails
	}
	if req.Status == models.ClaimStatusApproved {
		now := time.Now()
		claim.ResolvedAt = &now
		item.Status = models.ItemStatusClaimed
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&claim).Error; err != nil {
			return err
		}
		if req.Status == models.ClaimStatusApproved {
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	// The item's status changed; cached listings are stale now
	if req.Status == models.ClaimStatusApproved {
		middleware.GetListingCache().InvalidateAll(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Claim updated successfully",
		"data":    claim,
	})
}

// DeleteClaim handles DELETE /api/claims/:id - withdraws a claim (claimant
// or admin)
func DeleteClaim(c *gin.Context) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	db := config.GetDB()
	var claim models.Claim
	if err := db.First(&claim, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLAIM_NOT_FOUND",
				"message": "Claim not found",
			},
		})
		return
	}

	if claim.ClaimantRef != identity.Ref() && !identity.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Not authorized to delete this claim",
			},
		})
		return
	}

	if err := db.Delete(&claim).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Claim deleted successfully",
		"data":    gin.H{},
	})
}
