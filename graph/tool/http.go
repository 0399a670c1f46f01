package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxReportBytes caps how much of a response body becomes the report.
const maxReportBytes = 1 << 20

// HTTPTool delegates analysis to a remote service.
//
// The snippet is POSTed as text/plain; a 2xx response body is the report.
// Any other status is an error carrying the start of the body. This fits
// analyzers deployed as sidecars (semgrep, sonar bridges) without a local
// binary.
//
// Example:
//
//	semgrep := tool.NewHTTPTool("semgrep", "http://localhost:8081/scan",
//	    map[string]string{"Authorization": "Bearer " + token})
type HTTPTool struct {
	name    string
	url     string
	headers map[string]string
	client  *http.Client
}

// NewHTTPTool creates an HTTPTool. The call deadline comes from the context.
func NewHTTPTool(name, url string, headers map[string]string) *HTTPTool {
	return &HTTPTool{
		name:    name,
		url:     url,
		headers: headers,
		client:  &http.Client{},
	}
}

// Name implements Tool.
func (h *HTTPTool) Name() string {
	return h.name
}

// Analyze implements Tool.
func (h *HTTPTool) Analyze(ctx context.Context, snippet string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, strings.NewReader(snippet))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	for key, value := range h.headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReportBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(body))
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		return "", fmt.Errorf("analyzer returned %d: %s", resp.StatusCode, excerpt)
	}
	return strings.TrimSpace(string(body)), nil
}
