package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TemplateContent is the renderable payload of one template type.
type TemplateContent struct {
	Body  string   `json:"body"`
	Media []string `json:"media,omitempty"`
}

// ContentTemplate is a remotely stored message template. The provider keys
// template variants by type name ("twilio/text", "twilio/media", ...);
// selection takes the first key as it appeared in the response document,
// so JSON key order is preserved at decode time.
type ContentTemplate struct {
	Types map[string]TemplateContent

	order []string
}

// FirstType returns the first type key present in the response document.
func (t ContentTemplate) FirstType() (string, TemplateContent, bool) {
	if len(t.order) == 0 {
		return "", TemplateContent{}, false
	}
	name := t.order[0]
	return name, t.Types[name], true
}

func (t *ContentTemplate) UnmarshalJSON(b []byte) error {
	var envelope struct {
		Types json.RawMessage `json:"types"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return err
	}
	t.Types = nil
	t.order = nil
	if len(envelope.Types) == 0 || string(envelope.Types) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Types))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("template types: expected object, got %v", tok)
	}

	t.Types = make(map[string]TemplateContent)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("template types: non-string key %v", keyTok)
		}
		var content TemplateContent
		if err := dec.Decode(&content); err != nil {
			return fmt.Errorf("template types: decode %q: %w", key, err)
		}
		if _, seen := t.Types[key]; !seen {
			t.order = append(t.order, key)
		}
		t.Types[key] = content
	}
	return nil
}
