package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty fully masked", "", "***"},
		{"short fully masked", "12345", "***"},
		{"boundary eight chars", "12345678", "***"},
		{"long keeps edges", "123456789012", "123***012"},
		{"phone number", "+15551234567", "+15***567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.in))
		})
	}
}

func TestMaskAll(t *testing.T) {
	in := map[string]string{"phone": "+15551234567", "code": "abc"}
	out := MaskAll(in)

	assert.Equal(t, "+15***567", out["phone"])
	assert.Equal(t, "***", out["code"])
	// input untouched
	assert.Equal(t, "+15551234567", in["phone"])
}
