package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody caps how much of a failed response body is retained on the
// returned error. Successful bodies are never truncated.
const maxErrorBody = 4 << 10

// Credentials is a Basic auth pair.
type Credentials struct {
	Username string
	Password string
}

// Request describes one outbound provider call. Exactly one of Form or JSON
// should be set for write methods.
type Request struct {
	Method    string
	URL       string
	Header    http.Header
	Form      url.Values
	JSON      any
	BasicAuth *Credentials
}

// Response is the decoded transport result for 2xx answers.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Doer is the injected transport. Implementations must honor ctx
// cancellation; this layer carries no timeout policy of its own.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// ErrorBody is the provider error document shape.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// RequestError is the structured failure every transport call resolves to:
// either a non-2xx response (Status > 0, Body parsed when possible) or a
// transport-level failure (Status == 0, Cause set).
type RequestError struct {
	Status    int
	Body      ErrorBody
	Raw       string // truncated response body
	RequestID string // provider request-id header
	Cause     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("provider request failed: %v", e.Cause)
	}
	if e.Body.Message != "" {
		return fmt.Sprintf("provider responded %d: %s (code %d)", e.Status, e.Body.Message, e.Body.Code)
	}
	return fmt.Sprintf("provider responded %d", e.Status)
}

func (e *RequestError) Unwrap() error { return e.Cause }

// HTTPClient builds Doer on net/http.
type HTTPClient struct {
	Client *http.Client
}

func NewHTTPClient(c *http.Client) *HTTPClient {
	if c == nil {
		c = http.DefaultClient
	}
	return &HTTPClient{Client: c}
}

func (h *HTTPClient) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &RequestError{Cause: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.BasicAuth != nil {
		httpReq.SetBasicAuth(req.BasicAuth.Username, req.BasicAuth.Password)
	}

	resp, err := h.Client.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := &RequestError{
			Status:    resp.StatusCode,
			Raw:       truncate(string(raw), maxErrorBody),
			RequestID: requestID(resp.Header),
		}
		_ = json.Unmarshal(raw, &reqErr.Body)
		return nil, reqErr
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

func requestID(h http.Header) string {
	for _, k := range []string{"Twilio-Request-Id", "X-Request-Id"} {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
