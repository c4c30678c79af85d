package content

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/apperr"
	"github.com/smorady/msg-orchestrator/internal/channel"
	"github.com/smorady/msg-orchestrator/internal/model"
)

type fakeFetcher struct {
	tpl model.ContentTemplate
	err error
	sid string
}

func (f *fakeFetcher) FetchContentTemplate(_ context.Context, sid string) (model.ContentTemplate, error) {
	f.sid = sid
	return f.tpl, f.err
}

func decodeTemplate(t *testing.T, raw string) model.ContentTemplate {
	t.Helper()
	var tpl model.ContentTemplate
	require.NoError(t, json.Unmarshal([]byte(raw), &tpl))
	return tpl
}

func TestFetchTemplateMissingSID(t *testing.T) {
	r := NewResolver(&fakeFetcher{}, zap.NewNop())

	_, err := r.FetchTemplate(context.Background(), "", model.Settings{}, channel.SMS)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
	assert.Equal(t, "missing_content_sid", apperr.CodeOf(err))
}

func TestFetchTemplateUpstreamFailure(t *testing.T) {
	f := &fakeFetcher{err: errors.New("connection reset")}
	r := NewResolver(f, zap.NewNop())

	_, err := r.FetchTemplate(context.Background(), "HX123", model.Settings{SpaceID: "spc"}, channel.SMS)
	require.Error(t, err)
	assert.Equal(t, 500, apperr.StatusOf(err))
	assert.Equal(t, "content_fetch_failed", apperr.CodeOf(err))
	assert.Equal(t, "HX123", f.sid)
}

func TestExtractTypesFirstKeyWins(t *testing.T) {
	tpl := decodeTemplate(t, `{"types":{"twilio/text":{"body":"hi"},"twilio/media":{"body":"x","media":["u"]}}}`)
	r := NewResolver(nil, zap.NewNop())

	content, err := r.ExtractTypes(tpl, channel.SMS)
	require.NoError(t, err)
	assert.Equal(t, "hi", content.Body)
}

func TestExtractTypesEmpty(t *testing.T) {
	r := NewResolver(nil, zap.NewNop())
	for _, raw := range []string{`{}`, `{"types":{}}`, `{"types":null}`} {
		_, err := r.ExtractTypes(decodeTemplate(t, raw), channel.SMS)
		require.Error(t, err, "raw %s", raw)
		assert.Equal(t, 500, apperr.StatusOf(err))
	}
}

func TestExtractTypesUnsupportedOnChannel(t *testing.T) {
	// list-picker templates are WhatsApp-only
	tpl := decodeTemplate(t, `{"types":{"twilio/list-picker":{"body":"pick"}}}`)
	r := NewResolver(nil, zap.NewNop())

	_, err := r.ExtractTypes(tpl, channel.SMS)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
	assert.Contains(t, err.Error(), "twilio/list-picker")

	content, err := r.ExtractTypes(tpl, channel.WhatsApp)
	require.NoError(t, err)
	assert.Equal(t, "pick", content.Body)
}

func TestRenderFields(t *testing.T) {
	r := NewResolver(nil, zap.NewNop())
	traits := map[string]any{
		"first_name": "Ada",
		"order":      map[string]any{"id": "A-1"},
	}

	fields, err := r.RenderFields(map[string]any{
		"body":  "Hi {{.first_name}}, order {{.order.id}} shipped",
		"plain": "no templating here",
		"media": []string{"https://img/{{.order.id}}.png", "https://img/static.png"},
		"none":  nil,
	}, traits, model.Settings{}, channel.SMS)
	require.NoError(t, err)

	assert.Equal(t, "Hi Ada, order A-1 shipped", fields["body"])
	assert.Equal(t, "no templating here", fields["plain"])
	assert.Equal(t, []string{"https://img/A-1.png", "https://img/static.png"}, fields["media"])
	assert.Nil(t, fields["none"])
}

func TestRenderPlainStringRoundTrips(t *testing.T) {
	r := NewResolver(nil, zap.NewNop())

	fields, err := r.RenderFields(map[string]any{"body": "exactly as written"}, nil, model.Settings{}, channel.SMS)
	require.NoError(t, err)
	assert.Equal(t, "exactly as written", fields["body"])
}

func TestRenderMalformedTemplate(t *testing.T) {
	r := NewResolver(nil, zap.NewNop())

	_, err := r.RenderFields(map[string]any{"body": "broken {{.name"}, nil, model.Settings{}, channel.SMS)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
	assert.Contains(t, err.Error(), "unable to parse templating in sms")
}

func TestRenderFailureDiscardsWholeBatch(t *testing.T) {
	r := NewResolver(nil, zap.NewNop())

	fields, err := r.RenderFields(map[string]any{
		"good": "fine",
		"bad":  "broken {{.x",
	}, nil, model.Settings{}, channel.SMS)
	require.Error(t, err)
	assert.Nil(t, fields)
}

func TestRenderArrayPreservesLengthAndOrder(t *testing.T) {
	r := NewResolver(nil, zap.NewNop())
	in := []string{"a", "b", "c"}

	fields, err := r.RenderFields(map[string]any{"media": in}, nil, model.Settings{}, channel.SMS)
	require.NoError(t, err)
	assert.Equal(t, in, fields["media"])
}

func TestRenderContent(t *testing.T) {
	r := NewResolver(nil, zap.NewNop())

	out, err := r.RenderContent(
		model.TemplateContent{Body: "Hello {{.name}}", Media: []string{"https://m/{{.name}}"}},
		map[string]any{"name": "Ada"},
		model.Settings{}, channel.WhatsApp,
	)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", out.Body)
	assert.Equal(t, []string{"https://m/Ada"}, out.Media)
}
