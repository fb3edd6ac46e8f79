package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/models"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/utils"
)

// SubmitContact handles POST /api/contact - contact form intake.
// Accepts multipart form data with an optional image attachment.
func SubmitContact(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	email := strings.TrimSpace(c.PostForm("email"))
	phone := strings.TrimSpace(c.PostForm("phone"))
	message := strings.TrimSpace(c.PostForm("message"))

	if name == "" || email == "" || phone == "" || message == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Name, email, phone and message are required",
			},
		})
		return
	}

	var imageKey string
	if fileHeader, err := c.FormFile("image"); err == nil {
		if err := utils.ValidateImageFile(fileHeader); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}

		// Attachment storage is best-effort: a broken image store must not
		// block the submission
		if imageService := services.GetImageService(); imageService != nil {
			key, err := imageService.UploadImage(fileHeader)
			if err != nil {
				log.Printf("Contact attachment upload failed: %v", err)
			} else {
				imageKey = key
			}
		}
	}

	contact := models.Contact{
		Name:     name,
		Email:    strings.ToLower(email),
		Phone:    phone,
		Message:  message,
		ImageKey: imageKey,
		Status:   models.ContactStatusNew,
	}

	db := config.GetDB()
	if err := db.Create(&contact).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to submit contact form. Please try again.",
			},
		})
		return
	}

	// Confirmation email, best-effort
	if emailService := services.GetEmailService(); emailService != nil {
		subject, html := services.ContactConfirmationEmail(&contact)
		if err := emailService.Send(contact.Email, subject, html); err != nil {
			log.Printf("Contact confirmation email failed: %v", err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Contact form submitted successfully",
		"data":    contact,
	})
}

// ListContacts handles GET /api/contact - back-office listing of submissions
func ListContacts(c *gin.Context) {
	db := config.GetDB()

	var contacts []models.Contact
	if err := db.Order("created_at DESC").Find(&contacts).Error; err != nil {
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
		"count":   len(contacts),
		"data":    contacts,
	})
}

// UpdateContactRequest represents the request body for contact moderation
type UpdateContactRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateContactStatus handles PUT /api/contact/:id - back-office moderation
func UpdateContactStatus(c *gin.Context) {
	var req UpdateContactRequest
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

	if !models.IsValidContactStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid contact status",
			},
		})
		return
	}

	db := config.GetDB()
	var contact models.Contact
	if err := db.First(&contact, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CONTACT_NOT_FOUND",
				"message": "Contact submission not found",
			},
		})
		return
	}

	contact.Status = req.Status
	if err := db.Save(&contact).Error; err != nil {
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
		"message": "Contact updated successfully",
		"data":    contact,
	})
}
