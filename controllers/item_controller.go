package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/middleware"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/models"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
)

// CreateItemRequest represents the request body for reporting an item
type CreateItemRequest struct {
	Kind         string     `json:"type" binding:"required"`
	Title        string     `json:"title" binding:"required,max=100"`
	Description  string     `json:"description" binding:"required,max=500"`
	Category     string     `json:"category" binding:"required"`
	Location     string     `json:"location" binding:"required"`
	Date         *time.Time `json:"date"`
	ImageKey     string     `json:"image_key"`
	ContactEmail string     `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string     `json:"contact_phone"`
}

// UpdateItemRequest represents the request body for updating an item.
// All fields are optional; zero values leave the stored value untouched.
type UpdateItemRequest struct {
	Kind         string     `json:"type"`
	Title        string     `json:"title" binding:"omitempty,max=100"`
	Description  string     `json:"description" binding:"omitempty,max=500"`
	Category     string     `json:"category"`
	Location     string     `json:"location"`
	Date         *time.Time `json:"date"`
	ImageKey     *string    `json:"image_key"`
	Status       string     `json:"status"`
	ContactEmail string     `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string     `json:"contact_phone"`
}

// sortOrder maps the public sortBy parameter onto a safe ORDER BY clause.
// A leading '-' selects descending order.
func sortOrder(sortBy string) string {
	desc := false
	if len(sortBy) > 0 && sortBy[0] == '-' {
		desc = true
		sortBy = sortBy[1:]
	}

	var column string
	switch sortBy {
	case "createdAt":
		column = "created_at"
	case "date":
		column = "date"
	case "title":
		column = "title"
	case "category":
		column = "category"
	default:
		return "created_at DESC"
	}

	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}

// ListItems handles GET /api/items - lists items with filters and pagination.
// The listing cache middleware runs in front of this handler: on a cache hit
// this handler is never reached, on a miss the marshalled response is stored
// under the request's cache key.
func ListItems(c *gin.Context) {
	db := config.GetDB()

	query := db.Model(&models.Item{})
	if kind := c.Query("type"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		// Postgres LIKE is case-sensitive; lower both sides
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "12"))
	if err != nil || limit < 1 {
		limit = 12
	}
	if limit > 100 {
		limit = 100
	}

	var items []models.Item
	order := sortOrder(c.DefaultQuery("sortBy", "-createdAt"))
	if err := query.Order(order).Limit(limit).Offset((page - 1) * limit).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	payload := gin.H{
		"success":     true,
		"count":       len(items),
		"total":       total,
		"totalPages":  totalPages,
		"currentPage": page,
		"data":        items,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ENCODING_ERROR",
				"message": "Failed to encode response",
			},
		})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)

	// Populate the cache with the exact bytes just written
	if key, ok := middleware.CacheKey(c); ok {
		middleware.GetListingCache().Store(c.Request.Context(), key, body)
	}
}

// GetItem handles GET /api/items/:id - fetches a single item
func GetItem(c *gin.Context) {
	db := config.GetDB()

	var item models.Item
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ITEM_NOT_FOUND",
				"message": "Item not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// CreateItem handles POST /api/items - reports a lost or found item
func CreateItem(c *gin.Context) {
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

	var req CreateItemRequest
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

	if !models.IsValidKind(req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Item type must be 'lost' or 'found'",
			},
		})
		return
	}
	if !models.IsValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid category",
			},
		})
		return
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	// Contact details default to the poster's profile
	contactEmail := req.ContactEmail
	contactPhone := req.ContactPhone
	if identity.User != nil {
		if contactEmail == "" {
			contactEmail = identity.User.Email
		}
		if contactPhone == "" {
			contactPhone = identity.User.Phone
		}
	} else if identity.Admin != nil && contactEmail == "" {
		contactEmail = identity.Admin.Email
	}

	item := models.Item{
		Kind:         req.Kind,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		ImageKey:     req.ImageKey,
		Location:     req.Location,
		Date:         date,
		PostedBy:     identity.Ref(),
		Status:       models.ItemStatusActive,
		ContactEmail: contactEmail,
		ContactPhone: contactPhone,
	}

	db := config.GetDB()
	if err := db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	// Drop every cached listing before responding
	middleware.GetListingCache().InvalidateAll(c.Request.Context())

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Item posted successfully",
		"data":    item,
	})
}

// UpdateItem handles PUT /api/items/:id - updates an item (poster or admin)
func UpdateItem(c *gin.Context) {
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
	if err := db.First(&item, c.Param("id")).Error; err != nil {
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
				"message": "Not authorized to update this item",
			},
		})
		return
	}

	var req UpdateItemRequest
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

	if req.Kind != "" {
		if !models.IsValidKind(req.Kind) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Item type must be 'lost' or 'found'",
				},
			})
			return
		}
		item.Kind = req.Kind
	}
	if req.Category != "" {
		if !models.IsValidCategory(req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid category",
				},
			})
			return
		}
		item.Category = req.Category
	}
	if req.Status != "" {
		if !models.IsValidItemStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid status",
				},
			})
			return
		}
		item.Status = req.Status
	}
	if req.Title != "" {
		item.Title = req.Title
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.Location != "" {
		item.Location = req.Location
	}
	if req.Date != nil {
		item.Date = *req.Date
	}
	if req.ContactEmail != "" {
		item.ContactEmail = req.ContactEmail
	}
	if req.ContactPhone != "" {
		item.ContactPhone = req.ContactPhone
	}

	// Image replacement: delete the previous stored image, best-effort
	if req.ImageKey != nil && *req.ImageKey != item.ImageKey {
		if item.ImageKey != "" {
			if imageService := services.GetImageService(); imageService != nil {
				if err := imageService.DeleteImage(item.ImageKey); err != nil {
					log.Printf("Error deleting old image %s: %v", item.ImageKey, err)
				}
			}
		}
		item.ImageKey = *req.ImageKey
	}

	if err := db.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	middleware.GetListingCache().InvalidateAll(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Item updated successfully",
		"data":    item,
	})
}

// DeleteItem handles DELETE /api/items/:id - deletes an item (poster or admin)
func DeleteItem(c *gin.Context) {
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
	if err := db.First(&item, c.Param("id")).Error; err != nil {
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
				"message": "Not authorized to delete this item",
			},
		})
		return
	}

	// Best-effort cascade: the stored image goes with the item
	if item.ImageKey != "" {
		if imageService := services.GetImageService(); imageService != nil {
			if err := imageService.DeleteImage(item.ImageKey); err != nil {
				log.Printf("Error deleting image %s: %v", item.ImageKey, err)
			}
		}
	}

	if err := db.Delete(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	middleware.GetListingCache().InvalidateAll(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Item deleted successfully",
		"data":    gin.H{},
	})
}

// GetMyItems handles GET /api/items/my/posts - lists the caller's items
func GetMyItems(c *gin.Context) {
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
	var items []models.Item
	if err := db.Where("posted_by = ?", identity.Ref()).Order("created_at DESC").Find(&items).Error; err != nil {
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
		"count":   len(items),
		"data":    items,
	})
}
