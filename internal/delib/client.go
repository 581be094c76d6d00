// Package delib talks to the deliberation backend that classifies comments
// against discussion questions and serves stance/project analysis reports.
package delib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"delib-reply-bot/internal/observability"
)

// Stance is the backend's classification of a comment against one question
type Stance struct {
	QuestionID string  `json:"questionId"`
	StanceID   string  `json:"stanceId"`
	Confidence float64 `json:"confidence"`
}

// Comment is a matched comment returned by the add-comment endpoint
type Comment struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Stances []Stance `json:"stances"`
}

// CommentResponse is the add-comment response; Comments may be empty
type CommentResponse struct {
	Comments []Comment `json:"comments"`
}

// Client calls the deliberation backend REST API
type Client struct {
	baseURL    string
	adminKey   string
	httpClient *http.Client
}

// NewClient creates a deliberation backend client
func NewClient(baseURL, adminKey string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		adminKey: adminKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AddComment submits content as a new comment on the project and returns the
// matched comments with their stance annotations
func (c *Client) AddComment(ctx context.Context, projectID, content string) (*CommentResponse, error) {
	payload := map[string]any{
		"content":        content,
		"sourceType":     "x",
		"sourceUrl":      "",
		"skipDuplicates": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal comment payload: %w", err)
	}

	url := fmt.Sprintf("%s/projects/%s/comments", c.baseURL, projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create comment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.adminKey)

	respBody, err := c.do(req, "add_comment")
	if err != nil {
		return nil, err
	}

	var parsed CommentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse comment response: %w", err)
	}
	return &parsed, nil
}

// StanceReport fetches the stance-analysis report for one question, an opaque
// text blob that goes straight into the reply prompt
func (c *Client) StanceReport(ctx context.Context, projectID, questionID string) (string, error) {
	url := fmt.Sprintf("%s/projects/%s/questions/%s/stance-analysis", c.baseURL, projectID, questionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create stance report request: %w", err)
	}

	body, err := c.do(req, "stance_report")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ProjectReport fetches the whole project's analysis as raw JSON
func (c *Client) ProjectReport(ctx context.Context, projectID string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/projects/%s/analysis", c.baseURL, projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create project report request: %w", err)
	}

	body, err := c.do(req, "project_report")
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("project report is not valid JSON: %s", observability.Preview(string(body), 200))
	}
	return json.RawMessage(body), nil
}

func (c *Client) do(req *http.Request, operation string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.CollaboratorRequestDuration.WithLabelValues("delib", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.CollaboratorErrorsTotal.WithLabelValues("delib").Inc()
		return nil, fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observability.CollaboratorErrorsTotal.WithLabelValues("delib").Inc()
		return nil, fmt.Errorf("%s returned status=%d body=%s",
			operation, resp.StatusCode, observability.Preview(string(body), 200))
	}
	return body, nil
}
