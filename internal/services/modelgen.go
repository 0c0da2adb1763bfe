package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Upstream task states reported by the generation service
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskSucceeded = "succeeded"
	TaskFailed    = "failed"
)

// ModelTask is the upstream view of one generation
type ModelTask struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	ModelURL string `json:"model_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ModelGenerator turns an image into a 3D model asynchronously
type ModelGenerator interface {
	Submit(ctx context.Context, imageURL string) (string, error)
	Status(ctx context.Context, taskID string) (*ModelTask, error)
}

// ModelGenClient talks to the image-to-3D HTTP API
type ModelGenClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewModelGenClient creates a client for baseURL
func NewModelGenClient(baseURL, apiKey string, client *http.Client) *ModelGenClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ModelGenClient{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: client}
}

// Submit starts a generation and returns the upstream task id
func (c *ModelGenClient) Submit(ctx context.Context, imageURL string) (string, error) {
	var task ModelTask
	if err := c.do(ctx, http.MethodPost, "/tasks", map[string]string{"image_url": imageURL}, &task); err != nil {
		return "", err
	}
	if task.ID == "" {
		return "", upstream("modelgen", fmt.Errorf("response has no task id"))
	}
	return task.ID, nil
}

// Status fetches the current state of a task
func (c *ModelGenClient) Status(ctx context.Context, taskID string) (*ModelTask, error) {
	var task ModelTask
	if err := c.do(ctx, http.MethodGet, "/tasks/"+taskID, nil, &task); err != nil {
		return nil, err
	}
	if task.ID == "" {
		task.ID = taskID
	}
	return &task, nil
}

func (c *ModelGenClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return doJSON(c.http, "modelgen", req, out)
}

// doJSON executes req and decodes a JSON response. Non-2xx answers become UpstreamErrors
// carrying the upstream message.
func doJSON(client *http.Client, service string, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return upstream(service, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return upstream(service, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstream(service, fmt.Errorf("status %d: %s", resp.StatusCode, upstreamMessage(data)))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return upstream(service, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func upstreamMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(data))
}
