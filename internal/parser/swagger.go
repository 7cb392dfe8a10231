package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"apifuzz/internal/types"
)

// SwaggerParser fetches a Swagger/OpenAPI document and turns its operations
// into endpoint descriptions with per-category JSON Schemas.
type SwaggerParser struct {
	baseURL string
	client  *http.Client
	doc     *openapi3.T
}

// NewSwaggerParser creates a new instance of SwaggerParser.
func NewSwaggerParser(baseURL string) *SwaggerParser {
	return &SwaggerParser{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// ParseEndpoints fetches and parses the Swagger documentation.
func (p *SwaggerParser) ParseEndpoints() ([]*types.Endpoint, error) {
	// Try different Swagger/OpenAPI JSON URLs
	urls := []string{
		fmt.Sprintf("%s/swagger/v1/swagger.json", p.baseURL),
		fmt.Sprintf("%s/swagger.json", p.baseURL),
		fmt.Sprintf("%s/v1/swagger.json", p.baseURL),
		fmt.Sprintf("%s/api/swagger.json", p.baseURL),
		fmt.Sprintf("%s/api/v1/swagger.json", p.baseURL),
		fmt.Sprintf("%s/openapi.json", p.baseURL),
		fmt.Sprintf("%s/swagger", p.baseURL),
	}

	var lastErr error
	for _, url := range urls {
		p.doc, lastErr = p.fetchOpenAPIDoc(url)
		if lastErr == nil {
			break
		}
	}

	if p.doc == nil {
		return nil, fmt.Errorf("failed to fetch OpenAPI documentation from any known URL. Last error: %v", lastErr)
	}

	return extractEndpoints(p.doc, p.baseURL), nil
}

// ParseDocument parses an already-fetched OpenAPI document.
func ParseDocument(data []byte, baseURL string) ([]*types.Endpoint, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI doc: %v", err)
	}
	return extractEndpoints(doc, baseURL), nil
}

// fetchOpenAPIDoc fetches the OpenAPI documentation from the given URL.
func (p *SwaggerParser) fetchOpenAPIDoc(url string) (*openapi3.T, error) {
	resp, err := p.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI doc: %v", err)
	}

	return doc, nil
}

// Form payloads land in the form_data slot rather than body.
var formMediaTypes = map[string]bool{
	"multipart/form-data":               true,
	"application/x-www-form-urlencoded": true,
}

// extractEndpoints walks the document's operations and buckets their
// parameters into the six per-category schema slots.
func extractEndpoints(doc *openapi3.T, baseURL string) []*types.Endpoint {
	var endpoints []*types.Endpoint

	paths := doc.Paths.Map()
	for path, pathItem := range paths {
		for method, operation := range pathItem.Operations() {
			endpoint := &types.Endpoint{
				Path:    path,
				Method:  strings.ToUpper(method),
				BaseURL: baseURL,
			}

			params := append(append([]*openapi3.ParameterRef{}, pathItem.Parameters...), operation.Parameters...)
			endpoint.PathParameters = categorySchema(params, "path")
			endpoint.Headers = categorySchema(params, "header")
			endpoint.Cookies = categorySchema(params, "cookie")
			endpoint.Query = categorySchema(params, "query")
			endpoint.Body = emptyObjectSchema()
			endpoint.FormData = emptyObjectSchema()

			if operation.RequestBody != nil && operation.RequestBody.Value != nil {
				mediaType, content := pickContent(operation.RequestBody.Value.Content)
				if content != nil && content.Schema != nil {
					schema := schemaToMap(content.Schema)
					if content.Example != nil {
						schema["example"] = content.Example
					}
					endpoint.MediaType = mediaType
					if formMediaTypes[mediaType] {
						endpoint.FormData = schema
					} else {
						endpoint.Body = schema
						endpoint.RawBody = rawSchemaToMap(content.Schema)
					}
				}
			}

			endpoints = append(endpoints, endpoint)
		}
	}

	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Path != endpoints[j].Path {
			return endpoints[i].Path < endpoints[j].Path
		}
		return endpoints[i].Method < endpoints[j].Method
	})
	return endpoints
}

// pickContent selects the payload media type, preferring JSON when present.
func pickContent(content openapi3.Content) (string, *openapi3.MediaType) {
	if mt, ok := content["application/json"]; ok {
		return "application/json", mt
	}
	names := make([]string, 0, len(content))
	for name := range content {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		return name, content[name]
	}
	return "", nil
}

// categorySchema assembles one object schema from all parameters of a single
// location. Parameter examples are lifted into a category-level "example"
// mapping so example extraction sees them.
func categorySchema(params []*openapi3.ParameterRef, location string) types.Schema {
	properties := make(map[string]interface{})
	var required []interface{}
	example := make(map[string]interface{})

	for _, ref := range params {
		param := ref.Value
		if param == nil || param.In != location {
			continue
		}
		prop := schemaToMap(param.Schema)
		properties[param.Name] = prop
		if param.Required || location == "path" {
			required = append(required, param.Name)
		}
		if param.Example != nil {
			example[param.Name] = param.Example
		}
	}

	schema := types.Schema{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	if len(example) > 0 {
		schema["example"] = example
	}
	return schema
}

func emptyObjectSchema() types.Schema {
	return types.Schema{
		"type":                 "object",
		"properties":           map[string]interface{}{},
		"additionalProperties": false,
	}
}

// schemaToMap converts a kin-openapi schema into the plain JSON-Schema
// mapping the generation engine consumes. References are already resolved by
// the loader, so marshalling the value flattens them.
func schemaToMap(ref *openapi3.SchemaRef) types.Schema {
	if ref == nil || ref.Value == nil {
		return types.Schema{}
	}
	data, err := ref.Value.MarshalJSON()
	if err != nil {
		return types.Schema{}
	}
	var schema types.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return types.Schema{}
	}
	delete(schema, "$ref")
	return schema
}

// rawSchemaToMap keeps the reference form when the schema was declared via
// $ref, for serializers that want the schema as written.
func rawSchemaToMap(ref *openapi3.SchemaRef) types.Schema {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		return types.Schema{"$ref": ref.Ref}
	}
	return schemaToMap(ref)
}
