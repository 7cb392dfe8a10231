package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreDoc = `{
  "openapi": "3.0.0",
  "info": {"title": "pets", "version": "1.0"},
  "paths": {
    "/pets/{petId}": {
      "get": {
        "parameters": [
          {
            "name": "petId",
            "in": "path",
            "required": true,
            "schema": {"type": "integer", "minimum": 1}
          },
          {
            "name": "verbose",
            "in": "query",
            "schema": {"type": "boolean"},
            "example": true
          },
          {
            "name": "X-Request-Id",
            "in": "header",
            "schema": {"type": "string", "format": "uuid"}
          }
        ],
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/pets": {
      "post": {
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {"name": {"type": "string"}},
                "required": ["name"]
              }
            }
          }
        },
        "responses": {"201": {"description": "created"}}
      }
    },
    "/uploads": {
      "post": {
        "requestBody": {
          "content": {
            "multipart/form-data": {
              "schema": {
                "type": "object",
                "properties": {
                  "file": {"type": "string", "format": "binary"}
                }
              }
            }
          }
        },
        "responses": {"204": {"description": "uploaded"}}
      }
    }
  }
}`

func TestParseDocument(t *testing.T) {
	endpoints, err := ParseDocument([]byte(petstoreDoc), "http://localhost:8080")
	require.NoError(t, err)
	require.Len(t, endpoints, 3)

	byKey := make(map[string]int)
	for i, e := range endpoints {
		byKey[e.Method+" "+e.Path] = i
	}

	t.Run("path and query parameters are bucketed", func(t *testing.T) {
		e := endpoints[byKey["GET /pets/{petId}"]]
		assert.Equal(t, "http://localhost:8080", e.BaseURL)

		props := e.PathParameters["properties"].(map[string]interface{})
		petID := props["petId"].(map[string]interface{})
		assert.Equal(t, "integer", petID["type"])
		assert.Contains(t, e.PathParameters["required"], "petId")

		queryProps := e.Query["properties"].(map[string]interface{})
		assert.Contains(t, queryProps, "verbose")

		headerProps := e.Headers["properties"].(map[string]interface{})
		assert.Contains(t, headerProps, "X-Request-Id")
	})

	t.Run("parameter examples are lifted to the category schema", func(t *testing.T) {
		e := endpoints[byKey["GET /pets/{petId}"]]
		example, ok := e.Query["example"].(map[string]interface{})
		require.True(t, ok, "query schema should carry an example")
		assert.Equal(t, true, example["verbose"])
	})

	t.Run("json request body lands in the body slot", func(t *testing.T) {
		e := endpoints[byKey["POST /pets"]]
		assert.Equal(t, "application/json", e.MediaType)
		props := e.Body["properties"].(map[string]interface{})
		assert.Contains(t, props, "name")
	})

	t.Run("form request body lands in the form_data slot", func(t *testing.T) {
		e := endpoints[byKey["POST /uploads"]]
		assert.Equal(t, "multipart/form-data", e.MediaType)
		props := e.FormData["properties"].(map[string]interface{})
		assert.Contains(t, props, "file")
		bodyProps := e.Body["properties"].(map[string]interface{})
		assert.Empty(t, bodyProps)
	})
}

func TestParseDocumentInvalid(t *testing.T) {
	_, err := ParseDocument([]byte("{not json"), "http://localhost")
	require.Error(t, err)
}
