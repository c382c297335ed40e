// Package extract calls the external LLM providers that turn raw report
// text into normalized asset records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"assetscan/internal/models"
)

// Provider is one extraction backend. Implementations are interchangeable:
// same prompt, same output contract.
type Provider interface {
	Name() string
	Extract(ctx context.Context, document, filename string) ([]models.AssetRecord, error)
}

// Error is an extraction failure carrying the provider's raw response so
// the queue can classify rate limits.
type Error struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s extraction failed: HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s extraction failed: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err looks like a provider rate limit:
// HTTP 429 or a quota/resource-exhaustion marker in the payload. Anything
// else is treated as a terminal failure by the queue.
func IsRateLimited(err error) bool {
	var ee *Error
	if !errors.As(err, &ee) {
		return false
	}
	if ee.StatusCode == 429 {
		return true
	}
	body := ee.Body
	return strings.Contains(body, "429") ||
		strings.Contains(body, "RESOURCE_EXHAUSTED") ||
		strings.Contains(body, "quota")
}

// Postprocess normalizes provider output: the asset tag is always derived
// from the source filename (extension stripped), the RAM field is reduced
// to digits, and any field the provider left blank becomes the sentinel.
func Postprocess(records []models.AssetRecord, filename string) []models.AssetRecord {
	tag := strings.TrimSuffix(filename, filepath.Ext(filename))

	out := make([]models.AssetRecord, len(records))
	for i, rec := range records {
		rec.AssetTag = tag
		rec.RAMGB = digitsOnly(rec.RAMGB)
		for _, col := range models.Columns {
			if rec.Get(col) == "" {
				rec.Set(col, models.Sentinel)
			}
		}
		out[i] = rec
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return models.Sentinel
	}
	return b.String()
}
