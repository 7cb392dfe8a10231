package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Schema is a JSON Schema fragment for one parameter category. It may carry a
// reserved "example" key holding a literal value.
type Schema = map[string]interface{}

// Parameter categories of an API operation. Each maps to one schema slot on
// Endpoint and one generated slot on Case.
const (
	InPathParameters = "path_parameters"
	InHeaders        = "headers"
	InCookies        = "cookies"
	InQuery          = "query"
	InBody           = "body"
	InFormData       = "form_data"
)

// Categories lists all parameter categories. Order is not significant.
var Categories = []string{InPathParameters, InHeaders, InCookies, InQuery, InBody, InFormData}

// Endpoint describes a single API operation: its path, method and the JSON
// Schemas its parameters must conform to. Endpoints are built by the parser
// and treated as read-only afterwards.
type Endpoint struct {
	Path    string
	Method  string
	BaseURL string

	PathParameters Schema
	Headers        Schema
	Cookies        Schema
	Query          Schema
	Body           Schema
	FormData       Schema

	// RawBody is the body schema as written in the source document, before
	// reference resolution. Used by schema-aware serializers (XML).
	RawBody Schema

	// MediaType selects the encoding of the request body, e.g.
	// "application/json". Empty when the operation takes no payload.
	MediaType string
}

// CategorySchema returns the schema slot for the given parameter category.
func (e *Endpoint) CategorySchema(category string) (Schema, error) {
	switch category {
	case InPathParameters:
		return e.PathParameters, nil
	case InHeaders:
		return e.Headers, nil
	case InCookies:
		return e.Cookies, nil
	case InQuery:
		return e.Query, nil
	case InBody:
		return e.Body, nil
	case InFormData:
		return e.FormData, nil
	}
	return nil, fmt.Errorf("unknown parameter category: %q", category)
}

// GetRawPayloadSchema returns the unresolved body schema for the given media
// type, or nil if the operation has no payload for it.
func (e *Endpoint) GetRawPayloadSchema(mediaType string) Schema {
	if e.MediaType != mediaType {
		return nil
	}
	if e.RawBody != nil {
		return e.RawBody
	}
	return e.Body
}

// GetResolvedPayloadSchema returns the reference-resolved body schema for the
// given media type, or nil if the operation has no payload for it.
func (e *Endpoint) GetResolvedPayloadSchema(mediaType string) Schema {
	if e.MediaType != mediaType {
		return nil
	}
	return e.Body
}

// FormFile is a single file part of a multipart request.
type FormFile struct {
	Name     string
	FileName string
	Content  []byte
}

// PrepareMultipart splits generated form data into file parts and plain
// fields, using the form_data schema to decide which properties are files
// (string properties with "binary" or "file" format, or arrays of those).
func (e *Endpoint) PrepareMultipart(form map[string]interface{}) ([]FormFile, map[string]interface{}) {
	var files []FormFile
	data := make(map[string]interface{})
	for name, value := range form {
		if !e.isFileField(name) {
			data[name] = value
			continue
		}
		if items, ok := value.([]interface{}); ok {
			for _, item := range items {
				files = append(files, FormFile{Name: name, FileName: name, Content: asBytes(item)})
			}
			continue
		}
		files = append(files, FormFile{Name: name, FileName: name, Content: asBytes(value)})
	}
	return files, data
}

func (e *Endpoint) isFileField(name string) bool {
	props, ok := e.FormData["properties"].(map[string]interface{})
	if !ok {
		return false
	}
	prop, ok := props[name].(map[string]interface{})
	if !ok {
		return false
	}
	if isBinarySchema(prop) {
		return true
	}
	if items, ok := prop["items"].(map[string]interface{}); ok {
		return isBinarySchema(items)
	}
	return false
}

func isBinarySchema(schema map[string]interface{}) bool {
	format, _ := schema["format"].(string)
	return format == "binary" || format == "file"
}

func asBytes(value interface{}) []byte {
	switch v := value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return []byte(fmt.Sprint(value))
}

// Case is one concrete generated request for an Endpoint. Cases are created
// by the case strategy, used for a single test iteration and then discarded.
type Case struct {
	ID      string
	Path    string
	Method  string
	BaseURL string

	PathParameters map[string]interface{}
	Headers        map[string]string
	Cookies        map[string]string
	Query          map[string]interface{}
	FormData       map[string]interface{}

	// Body is the generated payload. BodySet distinguishes "no body" from a
	// generated JSON null, which is a valid payload on its own.
	Body    interface{}
	BodySet bool

	// Operation points back at the originating Endpoint for schema lookups.
	// The Case never owns it.
	Operation *Endpoint
}

// NewCase constructs a Case with the static fields copied from the endpoint.
func NewCase(e *Endpoint) *Case {
	return &Case{
		ID:        uuid.NewString(),
		Path:      e.Path,
		Method:    e.Method,
		BaseURL:   e.BaseURL,
		Operation: e,
	}
}

// Payload returns the value to serialize as the request payload: the body
// when one was generated, otherwise the form data for form-encoded
// operations.
func (c *Case) Payload() (interface{}, bool) {
	if c.BodySet {
		return c.Body, true
	}
	if len(c.FormData) > 0 {
		return c.FormData, true
	}
	return nil, false
}

// MediaType returns the payload encoding of the originating operation.
func (c *Case) MediaType() string {
	if c.Operation == nil {
		return ""
	}
	return c.Operation.MediaType
}

var pathPlaceholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// FormattedPath substitutes path parameters into the path template. It fails
// when the template references a parameter the case does not carry.
func (c *Case) FormattedPath() (string, error) {
	var missing string
	formatted := pathPlaceholderRe.ReplaceAllStringFunc(c.Path, func(placeholder string) string {
		name := strings.Trim(placeholder, "{}")
		value, ok := c.PathParameters[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return placeholder
		}
		return fmt.Sprint(value)
	})
	if missing != "" {
		return "", fmt.Errorf("path parameter %q is not defined", missing)
	}
	return formatted, nil
}
