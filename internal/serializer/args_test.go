package serializer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apifuzz/internal/types"
)

func postCase() *types.Case {
	endpoint := &types.Endpoint{
		Path:      "/users/{id}",
		Method:    "POST",
		BaseURL:   "http://example.com/api/",
		MediaType: "application/json",
		Body:      types.Schema{"type": "object"},
	}
	c := types.NewCase(endpoint)
	c.PathParameters = map[string]interface{}{"id": 42}
	c.Headers = map[string]string{"X-Token": "secret"}
	c.Query = map[string]interface{}{"limit": 5}
	c.Body = map[string]interface{}{"name": "test"}
	c.BodySet = true
	return c
}

func TestRequestArgs(t *testing.T) {
	c := postCase()
	args, err := RequestArgs(c, nil)
	require.NoError(t, err)

	assert.Equal(t, "POST", args["method"])
	assert.Equal(t, "http://example.com/api/users/42", args["url"])
	assert.Equal(t, map[string]interface{}{"name": "test"}, args["json"])
	assert.Equal(t, c.Query, args["params"])

	headers := args["headers"].(map[string]string)
	assert.Equal(t, "secret", headers["X-Token"])
	assert.Equal(t, "application/json", headers["Content-Type"])
	assert.Equal(t, defaultUserAgent, headers["User-Agent"])
}

func TestRequestArgsExtraHeadersWin(t *testing.T) {
	c := postCase()
	args, err := RequestArgs(c, map[string]string{"X-Token": "override", "user-agent": "custom"})
	require.NoError(t, err)

	headers := args["headers"].(map[string]string)
	assert.Equal(t, "override", headers["X-Token"])
	assert.Equal(t, "custom", headers["user-agent"])
	_, hasDefault := headers["User-Agent"]
	assert.False(t, hasDefault, "default user agent must not be added when one is present")
}

func TestRequestArgsMissingPathParameter(t *testing.T) {
	c := postCase()
	c.PathParameters = nil
	_, err := RequestArgs(c, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"id"`)
}

func TestRequestArgsUnknownMediaType(t *testing.T) {
	c := postCase()
	c.Operation.MediaType = "application/vnd.custom"
	defer func() { c.Operation.MediaType = "application/json" }()

	_, err := RequestArgs(c, nil)
	var notPossible *SerializationNotPossibleError
	require.True(t, errors.As(err, &notPossible))
	assert.Equal(t, "application/vnd.custom", notPossible.MediaType)
}

func TestRequestArgsNoBody(t *testing.T) {
	c := postCase()
	c.Body, c.BodySet = nil, false
	args, err := RequestArgs(c, nil)
	require.NoError(t, err)

	_, hasJSON := args["json"]
	_, hasData := args["data"]
	assert.False(t, hasJSON)
	assert.False(t, hasData)
	headers := args["headers"].(map[string]string)
	_, hasContentType := headers["Content-Type"]
	assert.False(t, hasContentType)
}

func TestHandlerArgs(t *testing.T) {
	c := postCase()
	args, err := HandlerArgs(c, nil)
	require.NoError(t, err)

	assert.Equal(t, "POST", args["method"])
	assert.Equal(t, "/users/42", args["path"])
	assert.Equal(t, c.Query, args["query_string"])
	assert.Equal(t, map[string]interface{}{"name": "test"}, args["json"])

	headers := args["headers"].(map[string]string)
	assert.Equal(t, "application/json", headers["Content-Type"])
}

func TestRequestArgsMultipartContentType(t *testing.T) {
	endpoint := &types.Endpoint{
		Path:      "/upload",
		Method:    "POST",
		BaseURL:   "http://example.com",
		MediaType: "multipart/form-data",
		FormData: types.Schema{
			"type":       "object",
			"properties": map[string]interface{}{"note": map[string]interface{}{"type": "string"}},
		},
	}
	c := types.NewCase(endpoint)
	c.FormData = map[string]interface{}{"note": "hi"}

	args, err := RequestArgs(c, nil)
	require.NoError(t, err)

	// The client transport computes the multipart boundary itself.
	headers := args["headers"].(map[string]string)
	_, hasContentType := headers["Content-Type"]
	assert.False(t, hasContentType)
	assert.Equal(t, map[string]interface{}{"note": "hi"}, args["data"])
}
