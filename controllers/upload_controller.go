package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/utils"
)

// UploadImage handles POST /api/upload - uploads an item image and returns
// its storage key together with a presigned URL
func UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "Please provide an image",
			},
		})
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_UNAVAILABLE",
				"message": "Image storage is currently unavailable",
			},
		})
		return
	}

	imageKey, err := imageService.UploadImage(fileHeader)
	if err != nil {
		// Validation failures are the client's fault, everything else is ours
		if uploadErr, ok := err.(*utils.FileUploadError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Error uploading image",
			},
		})
		return
	}

	imageURL, err := imageService.GetImageURL(imageKey)
	if err != nil {
		imageURL = ""
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"image_key": imageKey,
			"image_url": imageURL,
		},
	})
}

// DeleteImage handles DELETE /api/upload/*key - removes an uploaded image.
// The key is a wildcard parameter because storage keys contain slashes.
func DeleteImage(c *gin.Context) {
	imageKey := strings.TrimPrefix(c.Param("key"), "/")
	if imageKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_KEY",
				"message": "Please provide an image key",
			},
		})
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_UNAVAILABLE",
				"message": "Image storage is currently unavailable",
			},
		})
		return
	}

	if err := imageService.DeleteImage(imageKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DELETE_FAILED",
				"message": "Error deleting image",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Image deleted successfully",
	})
}
