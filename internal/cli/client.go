package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"travel-rag/internal/adapter/rag_http"
	"travel-rag/internal/infra/httpclient"
)

// Client calls the travel-rag HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpclient.NewPooledClient(timeout)}
}

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Body   rag_http.ErrorView
}

func (e *APIError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("server returned %d: %s: %s", e.Status, e.Body.Error, e.Body.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Body.Error)
}

func (c *Client) Answer(ctx context.Context, req rag_http.AnswerRequest) (*rag_http.AnswerView, error) {
	var out rag_http.AnswerView
	if err := c.do(ctx, http.MethodPost, "/v1/rag/answer", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Search(ctx context.Context, req rag_http.SearchRequest) (*rag_http.SearchView, error) {
	var out rag_http.SearchView
	if err := c.do(ctx, http.MethodPost, "/v1/rag/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ValidateQuery(ctx context.Context, query string) (*rag_http.ValidateView, error) {
	var out rag_http.ValidateView
	if err := c.do(ctx, http.MethodPost, "/v1/rag/validate-query", rag_http.ValidateRequest{Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Collection(ctx context.Context) (*rag_http.CollectionView, error) {
	var out rag_http.CollectionView
	if err := c.do(ctx, http.MethodGet, "/v1/rag/collection", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SSEEvent is one decoded server-sent event.
type SSEEvent struct {
	Event string
	Data  []byte
}

// AnswerStream posts to the streaming endpoint and calls onEvent for each
// event until the stream ends.
func (c *Client) AnswerStream(ctx context.Context, req rag_http.AnswerRequest, onEvent func(SSEEvent) error) error {
	resp, err := c.send(ctx, http.MethodPost, "/v1/rag/answer/stream", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	return readSSE(resp.Body, onEvent)
}

func readSSE(r io.Reader, onEvent func(SSEEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ev SSEEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if ev.Event != "" || len(ev.Data) > 0 {
				if err := onEvent(ev); err != nil {
					return err
				}
			}
			ev = SSEEvent{}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			ev.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.Data = append(ev.Data, strings.TrimSpace(strings.TrimPrefix(line, "data:"))...)
		}
	}
	return scanner.Err()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&apiErr.Body); err != nil {
		apiErr.Body.Error = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
