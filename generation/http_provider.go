package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 60 * time.Second

// HTTPConfig holds configuration for an HTTP generation provider.
type HTTPConfig struct {
	Name    string        `yaml:"name" mapstructure:"name" validate:"required"`
	BaseURL string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Model   string        `yaml:"model" mapstructure:"model"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// HTTPProvider implements Provider over a JSON-speaking HTTP endpoint.
type HTTPProvider struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPProvider creates an HTTP generation provider.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	return &HTTPProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (p *HTTPProvider) Name() string { return p.cfg.Name }

// IsAvailable checks if the provider endpoint is reachable.
func (p *HTTPProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/health", http.NoBody)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type httpGenerateRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	Schema      string  `json:"schema,omitempty"`
	Temperature float64 `json:"temperature"`
}

type httpGenerateResponse struct {
	Output string `json:"output"`
	Model  string `json:"model"`
}

// Generate sends the prompt and returns the raw output document.
func (p *HTTPProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(httpGenerateRequest{
		Model:       p.cfg.Model,
		Prompt:      req.Prompt,
		Schema:      req.SchemaContext,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generation: marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("generation: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation: provider returned status %d", resp.StatusCode)
	}

	var out httpGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("generation: decoding response: %w", err)
	}

	return &Response{Raw: []byte(out.Output), Model: out.Model}, nil
}
