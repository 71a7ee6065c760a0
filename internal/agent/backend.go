package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultBackendURL = "http://127.0.0.1:8000"

// Backend calls the assistant backend's chat endpoint.
type Backend struct {
	baseURL string
	client  *http.Client
}

// NewBackend creates a client for the assistant backend. Respects the
// CLARO_BACKEND_URL env var, falls back to http://127.0.0.1:8000.
func NewBackend() *Backend {
	url := os.Getenv("CLARO_BACKEND_URL")
	if url == "" {
		url = defaultBackendURL
	}
	return NewBackendURL(url)
}

// NewBackendURL creates a client for an explicit backend address.
func NewBackendURL(url string) *Backend {
	return &Backend{
		baseURL: url,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Generate sends the prompt as a chat message and returns the
// assistant's reply text.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"content": prompt,
		"role":    "user",
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/api/chat/message", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat api status %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.Content == "" {
		return "", fmt.Errorf("chat api returned empty content")
	}
	return result.Content, nil
}
