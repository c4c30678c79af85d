package content

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/apperr"
	"github.com/smorady/msg-orchestrator/internal/channel"
	"github.com/smorady/msg-orchestrator/internal/model"
)

// Fetcher retrieves a remote content template by its id.
type Fetcher interface {
	FetchContentTemplate(ctx context.Context, contentSID string) (model.ContentTemplate, error)
}

// Resolver fetches remote templates, validates their type against the
// channel whitelist, and renders trait placeholders into the final fields.
type Resolver struct {
	Fetcher Fetcher
	Log     *zap.Logger
}

func NewResolver(f Fetcher, log *zap.Logger) *Resolver {
	return &Resolver{Fetcher: f, Log: log}
}

// FetchTemplate retrieves the template. A missing content SID is a
// precondition failure raised before any network call; any transport
// failure is logged with channel and space context and surfaced as an
// upstream error.
func (r *Resolver) FetchTemplate(ctx context.Context, contentSID string, set model.Settings, ch channel.Channel) (model.ContentTemplate, error) {
	if contentSID == "" {
		return model.ContentTemplate{}, apperr.Validation("missing_content_sid", "Content SID not in payload")
	}

	tpl, err := r.Fetcher.FetchContentTemplate(ctx, contentSID)
	if err != nil {
		r.Log.Error("content template fetch failed",
			zap.String("channel", ch.Name),
			zap.String("space_id", set.SpaceID),
			zap.Error(err),
		)
		return model.ContentTemplate{}, apperr.Upstream("content_fetch_failed", "Unable to fetch content template", err)
	}
	return tpl, nil
}

// ExtractTypes selects the template's content. The first type key present
// must belong to the channel's supported set.
func (r *Resolver) ExtractTypes(tpl model.ContentTemplate, ch channel.Channel) (model.TemplateContent, error) {
	name, content, ok := tpl.FirstType()
	if !ok {
		return model.TemplateContent{}, apperr.Upstream("missing_template_type", "template does not contain a template type", nil)
	}
	if !ch.SupportsContentType(name) {
		return model.TemplateContent{}, apperr.Validation(
			"unsupported_content_type",
			fmt.Sprintf("content type %s not supported by %s", name, ch.Name),
		)
	}
	return content, nil
}

// RenderFields renders every field value against the trait namespace.
// Nil values pass through, string slices render element-wise, scalar
// strings render directly. A failure anywhere discards the whole batch.
func (r *Resolver) RenderFields(fields map[string]any, traits map[string]any, set model.Settings, ch channel.Channel) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		switch v := value.(type) {
		case nil:
			out[name] = nil
		case string:
			rendered, err := r.renderString(v, traits, set, ch)
			if err != nil {
				return nil, err
			}
			out[name] = rendered
		case []string:
			rendered := make([]string, len(v))
			for i, s := range v {
				rs, err := r.renderString(s, traits, set, ch)
				if err != nil {
					return nil, err
				}
				rendered[i] = rs
			}
			out[name] = rendered
		default:
			out[name] = value
		}
	}
	return out, nil
}

// RenderContent renders a selected template's body and media list.
func (r *Resolver) RenderContent(content model.TemplateContent, traits map[string]any, set model.Settings, ch channel.Channel) (model.TemplateContent, error) {
	fields, err := r.RenderFields(map[string]any{
		"body":  content.Body,
		"media": content.Media,
	}, traits, set, ch)
	if err != nil {
		return model.TemplateContent{}, err
	}

	rendered := model.TemplateContent{}
	if body, ok := fields["body"].(string); ok {
		rendered.Body = body
	}
	if media, ok := fields["media"].([]string); ok {
		rendered.Media = media
	}
	return rendered, nil
}

// renderString substitutes dotted-path trait lookups. Plain strings with no
// template syntax come back unchanged. Missing traits and malformed syntax
// both fail the render.
func (r *Resolver) renderString(s string, traits map[string]any, set model.Settings, ch channel.Channel) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	tpl, err := template.New("field").Option("missingkey=error").Parse(s)
	if err != nil {
		return "", r.renderError(err, set, ch)
	}

	var b strings.Builder
	if err := tpl.Execute(&b, traits); err != nil {
		return "", r.renderError(err, set, ch)
	}
	return b.String(), nil
}

func (r *Resolver) renderError(err error, set model.Settings, ch channel.Channel) error {
	r.Log.Error("template rendering failed",
		zap.String("channel", ch.Name),
		zap.String("space_id", set.SpaceID),
		zap.Error(err),
	)
	return apperr.Validation("template_render_failed", "unable to parse templating in "+ch.Name)
}
