// Package generate is the client side of POST /api/generate.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"
)

const (
	Path           = "/api/generate"
	DefaultTimeout = 30 * time.Second
	readBufferSize = 4096
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status from generate endpoint")
	ErrEmptyBody        = errors.New("generate response has no body")
)

// Request is the body of a generate call.
type Request struct {
	Prompt string `json:"prompt"`
}

// Client streams generated text from a generation proxy.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the proxy at baseURL. The timeout bounds the
// whole request including reading the stream.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Stream posts prompt and yields body chunks as they arrive. A non-200
// response or a missing body ends the sequence with an error.
func (c *Client) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		body, err := json.Marshal(Request{Prompt: prompt})
		if err != nil {
			yield("", fmt.Errorf("encode generate request: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Path, bytes.NewReader(body))
		if err != nil {
			yield("", fmt.Errorf("create generate request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			yield("", fmt.Errorf("generate request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			yield("", fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(msg))))
			return
		}
		if resp.Body == nil || resp.Body == http.NoBody {
			yield("", ErrEmptyBody)
			return
		}

		buf := make([]byte, readBufferSize)
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				if !yield(string(buf[:n]), nil) {
					return
				}
			}
			if errors.Is(readErr, io.EOF) {
				return
			}
			if readErr != nil {
				yield("", fmt.Errorf("read generate stream: %w", readErr))
				return
			}
		}
	}
}
