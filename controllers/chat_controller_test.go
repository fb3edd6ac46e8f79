package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/middleware"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/models"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
)

// setupMockGeminiServer answers every generateContent call with the given
// reply, recording the prompt it received
func setupMockGeminiServer(reply string, prompts *[]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			*prompts = append(*prompts, req.Contents[0].Parts[0].Text)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]string{{"text": reply}},
					},
				},
			},
		})
	}))
}

func TestChat(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	middleware.SetListingCache(nil)

	seedItem(db, t, "auth0|finder1", func(i *models.Item) {
		i.Kind = models.KindFound
		i.Title = "Red Umbrella"
		i.Location = "Bus Stop"
	})
	// Lost and claimed items must not leak into the prompt context
	seedItem(db, t, "auth0|finder1", func(i *models.Item) {
		i.Kind = models.KindLost
		i.Title = "Lost Phone"
	})
	seedItem(db, t, "auth0|finder1", func(i *models.Item) {
		i.Kind = models.KindFound
		i.Title = "Claimed Charger"
		i.Status = models.ItemStatusClaimed
	})

	var prompts []string
	server := setupMockGeminiServer("Yes! A red umbrella was found at the Bus Stop.", &prompts)
	defer server.Close()

	services.SetGeminiService(services.NewGeminiServiceForTesting("test-key", server.URL))
	defer services.SetGeminiService(nil)

	router := setupTestRouter()
	router.POST("/chat", Chat)

	body, _ := json.Marshal(map[string]interface{}{"message": "I lost my umbrella"})
	req, _ := http.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "Yes! A red umbrella was found at the Bus Stop.", data["reply"])

	assert.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Red Umbrella")
	assert.Contains(t, prompts[0], "I lost my umbrella")
	assert.NotContains(t, prompts[0], "Lost Phone")
	assert.NotContains(t, prompts[0], "Claimed Charger")
}

func TestChat_MissingMessage(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	services.SetGeminiService(services.NewGeminiServiceForTesting("test-key", "http://unused"))
	defer services.SetGeminiService(nil)

	router := setupTestRouter()
	router.POST("/chat", Chat)

	body, _ := json.Marshal(map[string]interface{}{})
	req, _ := http.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_ServiceUnavailable(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	services.SetGeminiService(nil)

	router := setupTestRouter()
	router.POST("/chat", Chat)

	body, _ := json.Marshal(map[string]interface{}{"message": "hello"})
	req, _ := http.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "AI_UNAVAILABLE", errorData["code"])
}

func TestChat_UpstreamFailure(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	services.SetGeminiService(services.NewGeminiServiceForTesting("test-key", server.URL))
	defer services.SetGeminiService(nil)

	router := setupTestRouter()
	router.POST("/chat", Chat)

	body, _ := json.Marshal(map[string]interface{}{"message": "hello"})
	req, _ := http.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "AI_ERROR", errorData["code"])
}
