package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"assetscan/internal/models"
)

func TestIsRateLimited(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"http 429", &Error{Provider: "gemini", StatusCode: 429}, true},
		{"resource exhausted body", &Error{Provider: "gemini", StatusCode: 503, Body: "RESOURCE_EXHAUSTED"}, true},
		{"quota body", &Error{Provider: "glm", StatusCode: 400, Body: `{"error":"quota exceeded"}`}, true},
		{"429 in body", &Error{Provider: "glm", StatusCode: 500, Body: "upstream returned 429"}, true},
		{"server error", &Error{Provider: "gemini", StatusCode: 500, Body: "internal"}, false},
		{"plain error", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRateLimited(tc.err); got != tc.want {
				t.Errorf("IsRateLimited(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsRateLimitedThroughWrapping(t *testing.T) {
	wrapped := &Error{Provider: "gemini", StatusCode: 429}
	err := errors.Join(errors.New("retrying"), wrapped)
	if !IsRateLimited(err) {
		t.Error("wrapped rate limit not detected")
	}
}

func TestPostprocess(t *testing.T) {
	records := []models.AssetRecord{{
		AssetTag:     "whatever the model said",
		ComputerName: "LAB-PC-01",
		RAMGB:        "16 GB DDR4",
	}}

	out := Postprocess(records, "B2-CS-LAB-015.html")
	if len(out) != 1 {
		t.Fatalf("got %d records", len(out))
	}
	rec := out[0]

	if rec.AssetTag != "B2-CS-LAB-015" {
		t.Errorf("asset tag = %q, want filename without extension", rec.AssetTag)
	}
	if rec.RAMGB != "16" {
		t.Errorf("RAM = %q, want digits only", rec.RAMGB)
	}
	if rec.Brand != models.Sentinel {
		t.Errorf("blank brand = %q, want sentinel", rec.Brand)
	}
	if rec.ComputerName != "LAB-PC-01" {
		t.Errorf("computer name = %q, should be untouched", rec.ComputerName)
	}
}

func TestPostprocessRAMWithoutDigits(t *testing.T) {
	out := Postprocess([]models.AssetRecord{{RAMGB: "unknown"}}, "x.html")
	if out[0].RAMGB != models.Sentinel {
		t.Errorf("RAM = %q, want sentinel", out[0].RAMGB)
	}
}

func TestParseGLMContent(t *testing.T) {
	fenced := "```json\n[{\"Computer Name\": \"PC-1\"}]\n```"
	records, err := parseGLMContent(fenced)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ComputerName != "PC-1" {
		t.Errorf("records = %+v", records)
	}

	single := `{"Computer Name": "PC-2"}`
	records, err = parseGLMContent(single)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ComputerName != "PC-2" {
		t.Errorf("records = %+v", records)
	}

	if _, err := parseGLMContent("not json at all"); err == nil {
		t.Error("garbage content should fail to parse")
	}
}

func TestGeminiExtract(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.GenerationConfig["responseMimeType"] != "application/json" {
			t.Errorf("generationConfig = %v", req.GenerationConfig)
		}

		inner, _ := json.Marshal([]map[string]string{{
			models.ColComputerName: "LAB-PC-01",
			models.ColRAMGB:        "16 GB",
		}})
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": string(inner)}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewGemini("test-key", "")
	g.baseURL = srv.URL

	records, err := g.Extract(context.Background(), "<html>report</html>", "LAB-015.html")
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0].AssetTag != "LAB-015" {
		t.Errorf("asset tag = %q", records[0].AssetTag)
	}
	if records[0].RAMGB != "16" {
		t.Errorf("RAM = %q", records[0].RAMGB)
	}
}

func TestGeminiExtractRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	g := NewGemini("test-key", "")
	g.baseURL = srv.URL

	_, err := g.Extract(context.Background(), "doc", "x.html")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRateLimited(err) {
		t.Errorf("429 response not classified as rate limit: %v", err)
	}
}

func TestGeminiExtractMissingKey(t *testing.T) {
	g := NewGemini("", "")
	_, err := g.Extract(context.Background(), "doc", "x.html")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "API key") {
		t.Errorf("error = %v", err)
	}
}

func TestGLMExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req glmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message": map[string]string{
					"role":    "assistant",
					"content": "```json\n[{\"Computer Name\": \"PC-9\"}]\n```",
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewGLM("test-key", "")
	g.endpoint = srv.URL

	records, err := g.Extract(context.Background(), "doc", "room-4.html")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0].ComputerName != "PC-9" {
		t.Errorf("computer name = %q", records[0].ComputerName)
	}
	if records[0].AssetTag != "room-4" {
		t.Errorf("asset tag = %q", records[0].AssetTag)
	}
	if records[0].Brand != models.Sentinel {
		t.Errorf("blank brand = %q, want sentinel", records[0].Brand)
	}
}
