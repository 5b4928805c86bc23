package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/logging"

	"github.com/sony/gobreaker"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiModel   = "gemini-1.5-flash"
)

// GenericFailureText is what callers see for any assistant failure:
// missing key, network error or an empty completion.
const GenericFailureText = "Failed to get response."

// ChatTurn is one {role, content} entry of the assistant conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// AssistantService proxies chat conversations to the hosted
// text-generation API behind a circuit breaker.
type AssistantService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewAssistantService(apiKey string, breaker *gobreaker.CircuitBreaker) *AssistantService {
	return &AssistantService{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: breaker,
	}
}

// Generate sends the ordered conversation turns and returns the single
// generated reply.
func (s *AssistantService) Generate(ctx context.Context, turns []ChatTurn) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("no messages provided")
	}

	// The generation API names the assistant role "model".
	contents := make([]geminiContent, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: turn.Content}},
		})
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.generate(ctx, geminiRequest{Contents: contents})
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: ASSISTANT_FAILED, Description: Completion request failed: %v", err)
		return "", err
	}
	return result.(string), nil
}

func (s *AssistantService) generate(ctx context.Context, reqBody geminiRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %v", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", s.baseURL, geminiModel, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
