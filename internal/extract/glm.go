package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"assetscan/internal/models"
)

const defaultGLMEndpoint = "https://open.bigmodel.cn/api/paas/v4/chat/completions"

// GLM extracts asset records through the Zhipu chat completions API. GLM
// has no response-schema support, so the reply is plain text that may be
// wrapped in markdown code fences.
type GLM struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewGLM creates a GLM provider.
func NewGLM(apiKey, model string) *GLM {
	if model == "" {
		model = "glm-4.5-flash"
	}
	return &GLM{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultGLMEndpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Name implements Provider.
func (g *GLM) Name() string { return "glm" }

type glmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type glmRequest struct {
	Model       string       `json:"model"`
	Messages    []glmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	TopP        float64      `json:"top_p"`
}

type glmResponse struct {
	Choices []struct {
		Message glmMessage `json:"message"`
	} `json:"choices"`
}

// Extract implements Provider.
func (g *GLM) Extract(ctx context.Context, document, filename string) ([]models.AssetRecord, error) {
	if g.apiKey == "" {
		return nil, &Error{Provider: g.Name(), Err: fmt.Errorf("missing GLM API key")}
	}

	reqBody := glmRequest{
		Model: g.model,
		Messages: []glmMessage{
			{Role: "system", Content: "You are a data extraction assistant. Output valid JSON only. " + extractionPrompt},
			{Role: "user", Content: document},
		},
		Temperature: 0.1,
		TopP:        0.7,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Provider: g.Name(), Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Provider: g.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: g.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, &Error{Provider: g.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var gr glmResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, &Error{Provider: g.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(gr.Choices) == 0 || gr.Choices[0].Message.Content == "" {
		return nil, nil
	}

	records, err := parseGLMContent(gr.Choices[0].Message.Content)
	if err != nil {
		return nil, &Error{Provider: g.Name(), Err: err}
	}
	return Postprocess(records, filename), nil
}

// parseGLMContent strips markdown fences and accepts either a JSON array
// or a single object.
func parseGLMContent(content string) ([]models.AssetRecord, error) {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var records []models.AssetRecord
	if err := json.Unmarshal([]byte(cleaned), &records); err == nil {
		return records, nil
	}

	var single models.AssetRecord
	if err := json.Unmarshal([]byte(cleaned), &single); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	return []models.AssetRecord{single}, nil
}
