package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type csvSerializer struct{}

func (csvSerializer) AsClient(_ *Context, value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"data": value}, nil
}

func (csvSerializer) AsHandler(_ *Context, value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"data": value}, nil
}

func TestRegisterAndUnregister(t *testing.T) {
	custom := csvSerializer{}
	require.NoError(t, Register("application/csv", custom))
	defer Unregister("application/csv")

	s, ok := Get("application/csv")
	require.True(t, ok)
	assert.Equal(t, custom, s)

	Unregister("application/csv")
	_, ok = Get("application/csv")
	assert.False(t, ok, "lookup after unregister should find nothing")
}

func TestRegisterAliases(t *testing.T) {
	custom := csvSerializer{}
	require.NoError(t, Register("application/csv", custom, "text/csv"))
	defer func() {
		Unregister("application/csv")
		Unregister("text/csv")
	}()

	direct, ok := Get("application/csv")
	require.True(t, ok)
	aliased, ok := Get("text/csv")
	require.True(t, ok)
	assert.Equal(t, direct, aliased)
}

func TestRegisterNilSerializer(t *testing.T) {
	err := Register("application/csv", nil)
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Contains(t, regErr.Message, "AsClient")

	_, ok := Get("application/csv")
	assert.False(t, ok, "failed registration must not touch the registry")
}

func TestRegisterOverwrites(t *testing.T) {
	first := csvSerializer{}
	require.NoError(t, Register("application/csv", first))
	defer Unregister("application/csv")

	second := octetStreamSerializer{}
	require.NoError(t, Register("application/csv", second))

	s, ok := Get("application/csv")
	require.True(t, ok)
	assert.Equal(t, Serializer(second), s)
}

func TestGetNormalizesMediaTypeFamilies(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		want      string
	}{
		{"json suffix", "application/ld+json", "application/json"},
		{"json with params", "application/json; charset=utf-8", "application/json"},
		{"plain text with params", "text/plain;charset=us-ascii", "text/plain"},
		{"xml suffix", "application/atom+xml", "application/xml"},
		{"text xml", "text/xml", "application/xml"},
		{"yaml alias stays literal", "application/x-yaml", "application/x-yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Get(tt.mediaType)
			require.True(t, ok)
			want, ok := Get(tt.want)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestGetUnknownMediaType(t *testing.T) {
	_, ok := Get("application/unknown-thing")
	assert.False(t, ok)
}

func TestBuiltinsRegistered(t *testing.T) {
	for _, mediaType := range []string{
		"application/json",
		"text/yaml",
		"text/x-yaml",
		"application/x-yaml",
		"text/vnd.yaml",
		"application/xml",
		"multipart/form-data",
		"application/x-www-form-urlencoded",
		"text/plain",
		"application/octet-stream",
	} {
		if _, ok := Get(mediaType); !ok {
			t.Errorf("no built-in serializer for %s", mediaType)
		}
	}
}
