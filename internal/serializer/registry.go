// Package serializer converts generated payloads into transport-specific
// invocation arguments, dispatched by media type.
package serializer

import (
	"fmt"

	"apifuzz/internal/types"
)

// Context carries the case being serialized and gives serializers access to
// the payload schemas of its operation. It lives for one serialization call.
type Context struct {
	Case *types.Case
}

// MediaType returns the media type of the case's payload.
func (c *Context) MediaType() string {
	return c.Case.MediaType()
}

// RawPayloadSchema returns the body schema as written in the source document.
func (c *Context) RawPayloadSchema() types.Schema {
	return c.Case.Operation.GetRawPayloadSchema(c.MediaType())
}

// ResolvedPayloadSchema returns the body schema with references resolved.
func (c *Context) ResolvedPayloadSchema() types.Schema {
	return c.Case.Operation.GetResolvedPayloadSchema(c.MediaType())
}

// Serializer transforms a generated payload into the argument maps of the two
// supported transports. New media types are supported by implementing this
// interface and registering it.
type Serializer interface {
	// AsClient produces arguments for the HTTP-client transport
	// ("json", "data", "files" keys).
	AsClient(ctx *Context, value interface{}) (map[string]interface{}, error)
	// AsHandler produces arguments for the in-process handler transport.
	AsHandler(ctx *Context, value interface{}) (map[string]interface{}, error)
}

// RegistrationError reports an attempt to register something that is not a
// usable serializer. The registry is left unchanged when it is returned.
type RegistrationError struct {
	Message string
}

func (e *RegistrationError) Error() string {
	return e.Message
}

// The registry is process-wide mutable state. Register everything at startup:
// mutating it concurrently with lookups is not supported.
var registry = map[string]Serializer{}

// Register installs a serializer for a media type, plus optional alias keys
// pointing at the same serializer. Registering over an existing key replaces
// it.
func Register(mediaType string, s Serializer, aliases ...string) error {
	if s == nil {
		return &RegistrationError{
			Message: fmt.Sprintf("cannot register a nil serializer for %q: a Serializer with AsClient and AsHandler is required", mediaType),
		}
	}
	registry[mediaType] = s
	for _, alias := range aliases {
		registry[alias] = s
	}
	return nil
}

// Unregister removes the serializer registered for the media type.
func Unregister(mediaType string) {
	delete(registry, mediaType)
}

// Get looks up a serializer for the media type, collapsing the JSON, plain
// text and XML families onto their canonical keys first. A missing serializer
// is not an error; the caller decides what to do.
func Get(mediaType string) (Serializer, bool) {
	s, ok := registry[normalize(mediaType)]
	return s, ok
}

func mustRegister(mediaType string, s Serializer, aliases ...string) {
	if err := Register(mediaType, s, aliases...); err != nil {
		panic(err)
	}
}

func init() {
	mustRegister("application/json", jsonSerializer{})
	mustRegister("text/yaml", yamlSerializer{}, "text/x-yaml", "application/x-yaml", "text/vnd.yaml")
	mustRegister("application/xml", xmlSerializer{})
	mustRegister("multipart/form-data", multipartSerializer{})
	mustRegister("application/x-www-form-urlencoded", urlEncodedFormSerializer{})
	mustRegister("text/plain", textSerializer{})
	mustRegister("application/octet-stream", octetStreamSerializer{})
}
