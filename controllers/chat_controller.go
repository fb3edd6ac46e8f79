package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/models"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
)

// ChatRequest represents the request body for the assistant endpoint
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat handles POST /api/chat - the CampusBot assistant. Recent found items
// are injected into the prompt so the model can point users at matching
// reports.
func Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Message is required",
			},
		})
		return
	}

	gemini := services.GetGeminiService()
	if gemini == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AI_UNAVAILABLE",
				"message": "AI service is currently unavailable",
			},
		})
		return
	}

	db := config.GetDB()
	var recentItems []models.Item
	if err := db.Where("kind = ? AND status = ?", models.KindFound, models.ItemStatusActive).
		Order("created_at DESC").Limit(5).Find(&recentItems).Error; err != nil {
		log.Printf("Chat context query failed: %v", err)
	}

	var itemsContext strings.Builder
	for _, item := range recentItems {
		fmt.Fprintf(&itemsContext, "- %s (%s) found at %s on %s. Desc: %s\n",
			item.Title, item.Category, item.Location, item.Date.Format("2006-01-02"), item.Description)
	}

	prompt := fmt.Sprintf(`You are CampusBot, a helpful assistant for the CampusFound lost and found platform.

Here is a list of recently FOUND items in the database:
%s

User Query: "%s"

Instructions:
1. If the user is asking about a lost item, check the 'found items' list above.
   - If you see a match, tell them about it specifically!
   - If no match, tell them to post a 'Lost Item' report on the dashboard.
2. If the user asks how to use the app:
   - To report: "Go to the 'Post' page."
   - To claim: "Click on an item and select 'Claim'."
3. Be friendly, concise, and helpful. Keep responses under 3 sentences if possible.`,
		itemsContext.String(), req.Message)

	reply, err := gemini.GenerateContent(c.Request.Context(), prompt)
	if err != nil {
		log.Printf("AI chat error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AI_ERROR",
				"message": "I'm having trouble thinking right now. Please try again later.",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"reply": reply,
		},
	})
}
