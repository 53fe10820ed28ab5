package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbukum/flowkit/catalog"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/graph"
)

const (
	defaultTimeout = 15 * time.Second
)

// Config holds configuration for the engine client.
type Config struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Client talks to the automation engine HTTP API.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates an engine API client.
func NewClient(cfg Config) *Client {
	cfg.ApplyDefaults()
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateRequest is the engine's workflow creation payload.
type CreateRequest struct {
	Name        string                  `json:"name"`
	Nodes       []graph.Node            `json:"nodes"`
	Connections map[string][]graph.Port `json:"connections"`
	Active      bool                    `json:"active"`
	Settings    Settings                `json:"settings"`
}

// Settings controls engine-side workflow behavior.
type Settings struct {
	// SaveExecutionHistory persists run history engine-side. Dry runs and
	// simulations disable it.
	SaveExecutionHistory bool `json:"save_execution_history"`
}

// ExecutionReport is the engine's execute-and-fetch result.
type ExecutionReport struct {
	Status       string `json:"status"` // "success" | "error"
	FailedNodeID string `json:"failed_node_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Succeeded reports whether the execution finished without error.
func (r *ExecutionReport) Succeeded() bool { return r.Status == "success" }

// Introspect fetches the engine's node-type schemas.
func (c *Client) Introspect(ctx context.Context) ([]catalog.Schema, error) {
	var out struct {
		Schemas []catalog.Schema `json:"schemas"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/node-types", nil, &out); err != nil {
		return nil, err
	}
	return out.Schemas, nil
}

// CreateWorkflow creates a workflow and returns its engine-side id.
func (c *Client) CreateWorkflow(ctx context.Context, req CreateRequest) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/workflows", req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.EngineRejection("engine returned no workflow id")
	}
	return out.ID, nil
}

// DeleteWorkflow removes a workflow from the engine. Deleting a workflow
// that no longer exists is not an error.
func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/v1/workflows/"+id, nil, nil)
	if errors.IsCode(err, errors.ErrCodeNotFound) {
		return nil
	}
	return err
}

// ActivateWorkflow turns a created workflow on.
func (c *Client) ActivateWorkflow(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/workflows/"+id+"/activate", nil, nil)
}

// DeactivateWorkflow turns an active workflow off.
func (c *Client) DeactivateWorkflow(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/workflows/"+id+"/deactivate", nil, nil)
}

// ExecuteWorkflow runs a workflow once with the given input and returns the
// engine's execution report.
func (c *Client) ExecuteWorkflow(ctx context.Context, id string, input map[string]any) (*ExecutionReport, error) {
	body := map[string]any{"input": input}
	var out ExecutionReport
	if err := c.do(ctx, http.MethodPost, "/api/v1/workflows/"+id+"/execute", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one engine API call with the configured timeout and maps
// failures onto the error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Internal(fmt.Errorf("engine: marshaling request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return errors.Internal(fmt.Errorf("engine: building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Timeout(method + " " + path).WithCause(err)
		}
		return errors.ConnectionFailed("automation engine").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Internal(fmt.Errorf("engine: decoding response: %w", err))
		}
		return nil
	}

	return c.statusError(resp)
}

// statusError maps a non-2xx engine response onto the error taxonomy,
// carrying the engine's message when one is present.
func (c *Client) statusError(resp *http.Response) error {
	message := readErrorMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFound("workflow", "")
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.RateLimited()
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return errors.EngineRejection(message)
	default:
		return errors.ServiceUnavailable("automation engine").
			WithDetail("status", resp.StatusCode).
			WithDetail("message", message)
	}
}

func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 8<<10))
	if err != nil {
		return ""
	}
	var doc struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &doc) == nil {
		if doc.Message != "" {
			return doc.Message
		}
		if doc.Error != "" {
			return doc.Error
		}
	}
	return string(bytes.TrimSpace(data))
}
