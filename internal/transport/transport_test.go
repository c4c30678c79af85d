package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoLargeSuccessBodyIntact(t *testing.T) {
	// well past the error-snippet cap
	doc := map[string]any{
		"sid":   "HX123",
		"types": map[string]any{"twilio/text": map[string]any{"body": strings.Repeat("lorem ipsum ", 600)}},
	}
	payload, err := json.Marshal(doc)
	require.NoError(t, err)
	require.Greater(t, len(payload), maxErrorBody)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	resp, err := NewHTTPClient(srv.Client()).Do(context.Background(), Request{
		Method: http.MethodGet,
		URL:    srv.URL,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Body, len(payload))

	var decoded map[string]any
	require.NoError(t, resp.JSON(&decoded))
	assert.Equal(t, "HX123", decoded["sid"])
}

func TestDoErrorBodySnippetTruncated(t *testing.T) {
	long := strings.Repeat("x", maxErrorBody+500)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Twilio-Request-Id", "RQ42")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.Client()).Do(context.Background(), Request{
		Method: http.MethodGet,
		URL:    srv.URL,
	})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadGateway, reqErr.Status)
	assert.Equal(t, "RQ42", reqErr.RequestID)
	assert.Len(t, reqErr.Raw, maxErrorBody)
}

func TestDoParsesStructuredErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code": 20429, "message": "Too Many Requests", "status": 429}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.Client()).Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
	})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 20429, reqErr.Body.Code)
	assert.Equal(t, "Too Many Requests", reqErr.Body.Message)
}
