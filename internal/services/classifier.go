package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// ImageClassifier labels product images
type ImageClassifier interface {
	ClassifyURL(ctx context.Context, imageURL string) ([]string, error)
	ClassifyFile(ctx context.Context, filename string, r io.Reader) ([]string, error)
}

// ClassifierClient calls the classification HTTP API
type ClassifierClient struct {
	baseURL string
	http    *http.Client
}

// NewClassifierClient creates a client for baseURL
func NewClassifierClient(baseURL string, client *http.Client) *ClassifierClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ClassifierClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

type classifyResponse struct {
	Labels []string `json:"labels"`
}

// ClassifyURL asks the service to fetch and label a remote image
func (c *ClassifierClient) ClassifyURL(ctx context.Context, imageURL string) ([]string, error) {
	b, err := json.Marshal(map[string]string{"image_url": imageURL})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

// ClassifyFile uploads an image as multipart field "file"
func (c *ClassifierClient) ClassifyFile(ctx context.Context, filename string, r io.Reader) ([]string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req)
}

func (c *ClassifierClient) send(req *http.Request) ([]string, error) {
	req.Header.Set("Accept", "application/json")
	var out classifyResponse
	if err := doJSON(c.http, "classifier", req, &out); err != nil {
		return nil, err
	}
	if out.Labels == nil {
		out.Labels = []string{}
	}
	return out.Labels, nil
}
