package twilio

import (
	"context"
	"net/http"
	"net/url"

	"github.com/smorady/msg-orchestrator/internal/model"
	"github.com/smorady/msg-orchestrator/internal/transport"
)

const (
	DefaultHostname    = "api.twilio.com"
	DefaultContentHost = "content.twilio.com"
)

// Client issues raw provider calls over the injected transport. Transport
// failures come back as *transport.RequestError; classification happens in
// the caller's error path.
type Client struct {
	Transport transport.Doer
	Settings  model.Settings
}

func NewClient(doer transport.Doer, set model.Settings) *Client {
	return &Client{Transport: doer, Settings: set}
}

// SendParams is one outbound message dispatch.
type SendParams struct {
	To             string
	From           string
	Body           string
	MediaURLs      []string
	StatusCallback string
}

// SendResult is the provider's acknowledgment of an accepted message.
type SendResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// SendMessage posts the form-encoded message create call.
func (c *Client) SendMessage(ctx context.Context, p SendParams) (SendResult, error) {
	form := url.Values{}
	form.Set("To", p.To)
	form.Set("From", p.From)
	form.Set("Body", p.Body)
	for _, m := range p.MediaURLs {
		form.Add("MediaUrl", m)
	}
	if p.StatusCallback != "" {
		form.Set("StatusCallback", p.StatusCallback)
	}

	resp, err := c.Transport.Do(ctx, transport.Request{
		Method:    http.MethodPost,
		URL:       "https://" + c.hostname() + "/2010-04-01/Accounts/" + c.Settings.AccountSID + "/Messages.json",
		Form:      form,
		BasicAuth: c.creds(),
	})
	if err != nil {
		return SendResult{}, err
	}

	var out SendResult
	if err := resp.JSON(&out); err != nil {
		return SendResult{}, err
	}
	return out, nil
}

// FetchContentTemplate retrieves a content template by SID.
func (c *Client) FetchContentTemplate(ctx context.Context, contentSID string) (model.ContentTemplate, error) {
	resp, err := c.Transport.Do(ctx, transport.Request{
		Method:    http.MethodGet,
		URL:       "https://" + c.contentHost() + "/v1/Content/" + contentSID,
		BasicAuth: c.creds(),
	})
	if err != nil {
		return model.ContentTemplate{}, err
	}

	var tpl model.ContentTemplate
	if err := resp.JSON(&tpl); err != nil {
		return model.ContentTemplate{}, err
	}
	return tpl, nil
}

func (c *Client) creds() *transport.Credentials {
	return &transport.Credentials{
		Username: c.Settings.APIKeySID,
		Password: c.Settings.APIKeySecret,
	}
}

func (c *Client) hostname() string {
	if c.Settings.Hostname != "" {
		return c.Settings.Hostname
	}
	return DefaultHostname
}

func (c *Client) contentHost() string {
	if c.Settings.ContentHost != "" {
		return c.Settings.ContentHost
	}
	return DefaultContentHost
}
