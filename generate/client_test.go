package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, c *Client, prompt string) (string, error) {
	t.Helper()
	var sb strings.Builder
	for chunk, err := range c.Stream(context.Background(), prompt) {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(chunk)
	}
	return sb.String(), nil
}

func TestClient_StreamsChunks(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, Path, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		flusher := w.(http.Flusher)
		for _, part := range []string{"Atlas ", "is ", "fast."} {
			_, _ = w.Write([]byte(part))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	text, err := collect(t, NewClient(srv.URL+"/", time.Second), "Describe Atlas")

	require.NoError(t, err)
	assert.Equal(t, "Atlas is fast.", text)
	assert.Equal(t, "Describe Atlas", got.Prompt)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "Prompt is required", http.StatusBadRequest)
			},
			wantErr: ErrUnexpectedStatus,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: ErrUnexpectedStatus,
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Length", "0")
				w.WriteHeader(http.StatusOK)
			},
			wantErr: ErrEmptyBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := collect(t, NewClient(srv.URL, time.Second), "prompt")

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	text, err := collect(t, NewClient(srv.URL, 200*time.Millisecond), "prompt")

	require.Error(t, err)
	assert.Equal(t, "partial", text)
}

func TestClient_StopEarly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for range 3 {
			_, _ = w.Write([]byte("chunk "))
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	n := 0
	for _, err := range NewClient(srv.URL, time.Second).Stream(context.Background(), "prompt") {
		require.NoError(t, err)
		n++
		break
	}
	assert.Equal(t, 1, n)
}
