package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
)

const geminiModel = "gemini-2.5-flash"

// GeminiService is a thin client for the Gemini generateContent REST API
type GeminiService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var geminiServiceInstance *GeminiService

// InitGeminiService initializes the Gemini client. Returns nil when no API
// key is configured; the chat endpoint reports itself unavailable then.
func InitGeminiService(cfg *config.Config) *GeminiService {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		geminiServiceInstance = nil
		return nil
	}

	geminiServiceInstance = &GeminiService{
		apiKey:  strings.TrimSpace(cfg.GeminiAPIKey),
		baseURL: "https://generativelanguage.googleapis.com",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	return geminiServiceInstance
}

// GetGeminiService returns the initialized Gemini service instance (may be nil)
func GetGeminiService() *GeminiService {
	return geminiServiceInstance
}

// SetGeminiService sets the Gemini service instance (primarily for testing)
func SetGeminiService(service *GeminiService) {
	geminiServiceInstance = service
}

// NewGeminiServiceForTesting builds a client pointed at a custom base URL
func NewGeminiServiceForTesting(apiKey, baseURL string) *GeminiService {
	return &GeminiService{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateContent sends a prompt to the Gemini API and returns the first
// candidate's text
func (s *GeminiService) GenerateContent(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, geminiModel, s.apiKey)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Gemini API returned status %d: %s", resp.StatusCode, string(body))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode Gemini response: %w", err)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini API returned no candidates")
	}

	return out.Candidates[0].Content.Parts[0].Text, nil
}
