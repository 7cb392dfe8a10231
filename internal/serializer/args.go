package serializer

import (
	"fmt"
	"strings"

	"apifuzz/internal/types"
)

const defaultUserAgent = "apifuzz/1.0"

// SerializationNotPossibleError is returned when a case carries a payload in
// a media type no registered serializer can handle.
type SerializationNotPossibleError struct {
	MediaType string
}

func (e *SerializationNotPossibleError) Error() string {
	return fmt.Sprintf("no serializer registered for media type %q; register one to send this payload", e.MediaType)
}

// RequestArgs converts a case into the argument map of the HTTP-client
// transport: "method", "url", "headers", "params", "cookies", plus whatever
// the payload serializer contributes ("json", "data", "files").
func RequestArgs(c *types.Case, extraHeaders map[string]string) (map[string]interface{}, error) {
	headers := mergedHeaders(c, extraHeaders)
	mediaType := c.MediaType()
	payload, hasPayload := c.Payload()
	if mediaType != "" && mediaType != "multipart/form-data" && hasPayload {
		// The client computes the multipart boundary itself, so its
		// Content-Type must not be pinned here.
		headers["Content-Type"] = mediaType
	}

	path, err := c.FormattedPath()
	if err != nil {
		return nil, err
	}
	args := map[string]interface{}{
		"method":  c.Method,
		"url":     joinURL(c.BaseURL, path),
		"headers": headers,
		"params":  c.Query,
		"cookies": c.Cookies,
	}
	extra, err := payloadArgs(c, func(s Serializer, ctx *Context) (map[string]interface{}, error) {
		return s.AsClient(ctx, payload)
	})
	if err != nil {
		return nil, err
	}
	for key, value := range extra {
		args[key] = value
	}
	return args, nil
}

// HandlerArgs converts a case into the argument map of the in-process handler
// transport: "method", "path", "headers", "query_string", plus the payload
// serializer's contribution.
func HandlerArgs(c *types.Case, extraHeaders map[string]string) (map[string]interface{}, error) {
	headers := mergedHeaders(c, extraHeaders)
	payload, hasPayload := c.Payload()
	if mediaType := c.MediaType(); mediaType != "" && hasPayload {
		headers["Content-Type"] = mediaType
	}

	path, err := c.FormattedPath()
	if err != nil {
		return nil, err
	}
	args := map[string]interface{}{
		"method":       c.Method,
		"path":         path,
		"headers":      headers,
		"query_string": c.Query,
	}
	extra, err := payloadArgs(c, func(s Serializer, ctx *Context) (map[string]interface{}, error) {
		return s.AsHandler(ctx, payload)
	})
	if err != nil {
		return nil, err
	}
	for key, value := range extra {
		args[key] = value
	}
	return args, nil
}

func payloadArgs(c *types.Case, serialize func(Serializer, *Context) (map[string]interface{}, error)) (map[string]interface{}, error) {
	mediaType := c.MediaType()
	if _, ok := c.Payload(); !ok || mediaType == "" {
		return nil, nil
	}
	s, ok := Get(mediaType)
	if !ok {
		return nil, &SerializationNotPossibleError{MediaType: mediaType}
	}
	return serialize(s, &Context{Case: c})
}

func mergedHeaders(c *types.Case, extra map[string]string) map[string]string {
	headers := make(map[string]string, len(c.Headers)+len(extra)+1)
	for name, value := range c.Headers {
		headers[name] = value
	}
	for name, value := range extra {
		headers[name] = value
	}
	hasUserAgent := false
	for name := range headers {
		if strings.EqualFold(name, "user-agent") {
			hasUserAgent = true
			break
		}
	}
	if !hasUserAgent {
		headers["User-Agent"] = defaultUserAgent
	}
	return headers
}

func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
