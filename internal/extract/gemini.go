package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"assetscan/internal/models"
)

const defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

// Gemini extracts asset records through the Gemini generateContent API
// with a strict JSON response schema.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGemini creates a Gemini provider.
func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBase,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Name implements Provider.
func (g *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig map[string]interface{} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// responseSchema constrains the reply to an array of objects with one
// string property per column.
func responseSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(models.Columns))
	for _, col := range models.Columns {
		props[col] = map[string]string{"type": "STRING"}
	}
	return map[string]interface{}{
		"type": "ARRAY",
		"items": map[string]interface{}{
			"type":       "OBJECT",
			"properties": props,
			"required":   []string{models.ColComputerName},
		},
	}
}

// Extract implements Provider.
func (g *Gemini) Extract(ctx context.Context, document, filename string) ([]models.AssetRecord, error) {
	if g.apiKey == "" {
		return nil, &Error{Provider: g.Name(), Err: fmt.Errorf("missing Gemini API key")}
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: extractionPrompt}, {Text: document}},
		}},
		GenerationConfig: map[string]interface{}{
			"responseMimeType": "application/json",
			"responseSchema":   responseSchema(),
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Provider: g.Name(), Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Provider: g.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: g.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, &Error{Provider: g.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, &Error{Provider: g.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, nil
	}

	var records []models.AssetRecord
	text := gr.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), &records); err != nil {
		return nil, &Error{Provider: g.Name(), Err: fmt.Errorf("parse records: %w", err)}
	}

	return Postprocess(records, filename), nil
}
