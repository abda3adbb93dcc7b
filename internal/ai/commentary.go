package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// FallbackCommentary is returned to the widget whenever the model call
// fails for any reason. Callers never see the underlying error.
const FallbackCommentary = "Commentary unavailable temporarily."

const promptTemplate = `You are a lively cricket commentator. Given the match
data below, produce a single punchy line of commentary, 20 words or fewer.
Mixed Hindi-English is welcome, e.g. "Kohli on fire aaj, 50 off 30!"
Reply with the commentary line only.

Match data:
%s`

// Client talks to a local generative-text endpoint (Ollama wire format).
type Client struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2:latest"
	}
	return &Client{
		BaseURL:    baseURL,
		Model:      model,
		HTTPClient: http.DefaultClient,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// GenerateCommentary asks the model for a one-line status for a match. The
// match record is serialized as-is into the prompt context. Errors are
// returned to the caller, who is expected to degrade to FallbackCommentary
// rather than surface them.
func (c *Client) GenerateCommentary(ctx context.Context, matchData any) (string, error) {
	matchJSON, err := json.Marshal(matchData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal match data: %w", err)
	}

	reqBody := generateRequest{
		Model:  c.Model,
		Prompt: fmt.Sprintf(promptTemplate, matchJSON),
		Stream: false,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("commentary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("commentary model returned status: %d", resp.StatusCode)
	}

	var parsedResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsedResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := strings.TrimSpace(parsedResp.Response)
	if text == "" {
		return "", fmt.Errorf("commentary model returned an empty line")
	}
	return text, nil
}
