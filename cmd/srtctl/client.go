package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"subtitle-translate/internal/infra/api/apiv1"
)

type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string, timeout time.Duration) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx response from the service.
type apiError struct {
	Status int
	Code   string
	Detail string
}

func (e *apiError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Detail)
	}
	return fmt.Sprintf("server returned %d %s", e.Status, e.Code)
}

func (c *apiClient) Submit(ctx context.Context, srtText, lang, note string) (*apiv1.SubmitResponse, error) {
	body, err := json.Marshal(apiv1.SubmitRequest{SRT: srtText, TargetLanguage: lang, Note: note})
	if err != nil {
		return nil, err
	}
	var out apiv1.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/translate-jobs", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Poll(ctx context.Context, jobID string) (*apiv1.PollResponse, error) {
	var out apiv1.PollResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/translate-jobs/"+url.PathEscape(jobID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		var eb apiv1.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&eb) == nil {
			apiErr.Code, apiErr.Detail = eb.Error, eb.Detail
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
