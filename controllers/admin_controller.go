package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/middleware"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/models"
)

// AdminRegisterRequest represents the request body for admin registration
type AdminRegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// AdminLoginRequest represents the request body for admin login
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AdminRegister handles POST /api/admin/register - first-time back-office setup
func AdminRegister(c *gin.Context) {
	var req AdminRegisterRequest
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

	email := strings.ToLower(strings.TrimSpace(req.Email))

	db := config.GetDB()
	var existing models.Admin
	if err := db.Where("email = ? OR username = ?", email, req.Username).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ADMIN_EXISTS",
				"message": "Admin already exists",
			},
		})
		return
	}

	admin := models.Admin{
		Username: req.Username,
		Email:    email,
	}
	if err := admin.SetPassword(req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SERVER_ERROR",
				"message": "Failed to process password",
			},
		})
		return
	}

	if err := db.Create(&admin).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	token, err := middleware.GenerateLegacyToken(admin.ID, middleware.LegacyScopeAdmin, config.GetConfig().JWTSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SERVER_ERROR",
				"message": "Failed to issue token",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"admin": admin,
			"token": token,
		},
	})
}

// AdminLogin handles POST /api/admin/login - legacy admin login
func AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
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
	var admin models.Admin
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&admin).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CREDENTIALS",
				"message": "Invalid credentials",
			},
		})
		return
	}

	if !admin.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CREDENTIALS",
				"message": "Invalid credentials",
			},
		})
		return
	}

	token, err := middleware.GenerateLegacyToken(admin.ID, middleware.LegacyScopeAdmin, config.GetConfig().JWTSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SERVER_ERROR",
				"message": "Failed to issue token",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"admin": admin,
			"token": token,
		},
	})
}

// GetAdminMe handles GET /api/admin/me - returns the resolved admin identity
func GetAdminMe(c *gin.Context) {
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

	// Both admin representations answer here: the legacy record, or a
	// provider-linked user carrying the admin role.
	if identity.Admin != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"admin": identity.Admin,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"admin": identity.User,
		},
	})
}
