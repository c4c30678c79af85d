package callback

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smorady/msg-orchestrator/internal/apperr"
)

func TestBuild(t *testing.T) {
	got, err := Build(
		"https://cb.example/hook",
		"",
		"spc_1",
		map[string]string{"foo": "bar"},
		"phone",
		"+15551234567",
	)
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "bar", q.Get("foo"))
	assert.Equal(t, "spc_1", q.Get(SpaceIDParam))
	assert.Equal(t, "phone", q.Get(ExternalIDKeyParam))
	assert.Equal(t, "+15551234567", q.Get(ExternalIDValueParam))
	assert.Equal(t, "rp=all&rc=5", u.Fragment)
	assert.Contains(t, got, "__segment_internal_external_id_value__=%2B15551234567")
}

func TestBuildNoBaseURL(t *testing.T) {
	got, err := Build("", "", "spc_1", nil, "phone", "+1555")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildConnectionOverrides(t *testing.T) {
	got, err := Build("https://cb.example/hook", "rp=all&rc=1", "spc_1", nil, "phone", "+1555")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "rp=all&rc=1", u.Fragment)
}

func TestBuildMalformedBaseURL(t *testing.T) {
	for _, bad := range []string{"://missing-scheme", "not a url", "relative/path"} {
		_, err := Build(bad, "", "spc_1", nil, "phone", "+1555")
		require.Error(t, err, "base %q", bad)
		assert.Equal(t, 400, apperr.StatusOf(err))
	}
}

func TestBuildCollidingCustomArgKeptAlongsideSynthetic(t *testing.T) {
	got, err := Build(
		"https://cb.example/hook",
		"",
		"spc_1",
		map[string]string{"space_id": "custom_value"},
		"phone",
		"+1555",
	)
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	values := u.Query()[SpaceIDParam]
	assert.ElementsMatch(t, []string{"custom_value", "spc_1"}, values)
}

func TestBuildKeepsExistingQuery(t *testing.T) {
	got, err := Build("https://cb.example/hook?keep=1", "", "spc_1", nil, "phone", "+1555")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "1", u.Query().Get("keep"))
}
