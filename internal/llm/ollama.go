package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

func (p *OllamaProvider) GetModel() string {
	return p.model
}

func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.generate(ctx, prompt, nil)
}

// Chat flattens the conversation into a single prompt for the
// generate endpoint.
func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	var prompt strings.Builder
	for i, msg := range messages {
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(msg.Content)
	}

	options := map[string]any{}
	if opts.Temperature != 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens != 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if len(options) == 0 {
		options = nil
	}
	return p.generate(ctx, prompt.String(), options)
}

func (p *OllamaProvider) generate(ctx context.Context, prompt string, options map[string]any) (string, error) {
	reqBody := ollamaRequest{
		Model:   p.model,
		Prompt:  prompt,
		Stream:  false,
		Options: options,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama request failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return ollamaResp.Response, nil
}
