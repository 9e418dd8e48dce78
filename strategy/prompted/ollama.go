package prompted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// OllamaCompleter completes prompts against a local Ollama server's
// /api/generate endpoint.
type OllamaCompleter struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaCompleter creates a completer for the given Ollama base URL
// (e.g. "http://localhost:11434") and model name.
func NewOllamaCompleter(baseURL, model string) *OllamaCompleter {
	return &OllamaCompleter{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  http.DefaultClient,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Complete streams the generation, forwarding each fragment to onDelta (when
// non-nil) and returning the concatenated reply.
func (o *OllamaCompleter) Complete(ctx context.Context, system, prompt string, onDelta func(string)) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  o.model,
		System: system,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var full strings.Builder
	decoder := json.NewDecoder(resp.Body)
	for {
		var chunk generateChunk
		if err := decoder.Decode(&chunk); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if chunk.Error != "" {
			return "", errors.New(chunk.Error)
		}
		if chunk.Response != "" {
			full.WriteString(chunk.Response)
			if onDelta != nil {
				onDelta(chunk.Response)
			}
		}
		if chunk.Done {
			return full.String(), nil
		}
	}
}
