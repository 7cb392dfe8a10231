// Package strategy composes per-category value generators into a single
// generator of complete request cases.
package strategy

import (
	"errors"
	"fmt"

	"pgregory.net/rapid"

	"apifuzz/internal/gen"
	"apifuzz/internal/types"
)

// ErrInvalidEndpoint is returned when a generator cannot be built from one of
// the endpoint's parameter schemas.
var ErrInvalidEndpoint = errors.New("invalid endpoint: cannot build a generator from its schemas")

// BuildCaseStrategy builds a lazy, restartable, shrinkable generator of cases
// for the endpoint. Shrinking is handled by the underlying engine and keeps
// the per-category independence intact.
func BuildCaseStrategy(endpoint *types.Endpoint) (*rapid.Generator[*types.Case], error) {
	return buildCaseStrategy(endpoint, nil)
}

// buildCaseStrategy builds the case generator with zero or more categories
// pinned to fixed values instead of being generated. Used directly by example
// injection.
func buildCaseStrategy(endpoint *types.Endpoint, fixed map[string]interface{}) (g *rapid.Generator[*types.Case], err error) {
	defer func() {
		if r := recover(); r != nil {
			var schemaErr *gen.SchemaError
			if e, ok := r.(error); ok && errors.As(e, &schemaErr) {
				err = fmt.Errorf("%w: %v", ErrInvalidEndpoint, schemaErr)
				return
			}
			panic(r)
		}
	}()

	pathGen := objectGen(endpoint.PathParameters, fixed, types.InPathParameters)
	headerGen := headerMapGen(endpoint.Headers, fixed)
	cookieGen := stringMapGen(endpoint.Cookies, fixed, types.InCookies)
	queryGen := objectGen(endpoint.Query, fixed, types.InQuery)
	formGen := objectGen(endpoint.FormData, fixed, types.InFormData)

	// The body slot is special: GET requests never carry one, no matter what
	// the schema says, and a pinned body value suppresses generation.
	fixedBody, bodyPinned := fixed[types.InBody]
	var bodyGen *rapid.Generator[interface{}]
	if endpoint.Method != "GET" && !bodyPinned {
		bodyGen = gen.FromSchema(endpoint.Body)
	}

	return rapid.Custom(func(t *rapid.T) *types.Case {
		c := types.NewCase(endpoint)
		c.PathParameters = pathGen.Draw(t, types.InPathParameters)
		c.Headers = headerGen.Draw(t, types.InHeaders)
		c.Cookies = cookieGen.Draw(t, types.InCookies)
		c.Query = queryGen.Draw(t, types.InQuery)
		c.FormData = formGen.Draw(t, types.InFormData)
		switch {
		case endpoint.Method == "GET":
			// body stays unset
		case bodyPinned:
			c.Body, c.BodySet = fixedBody, true
		default:
			c.Body, c.BodySet = bodyGen.Draw(t, types.InBody), true
		}
		return c
	}), nil
}

// objectGen builds a generator for one object-valued category, honoring a
// pinned value when present.
func objectGen(schema types.Schema, fixed map[string]interface{}, category string) *rapid.Generator[map[string]interface{}] {
	if value, ok := fixed[category]; ok {
		// SampledFrom still consumes a draw, which the engine requires of
		// every generator.
		return rapid.SampledFrom([]map[string]interface{}{toObject(value)})
	}
	return rapid.Map(gen.FromSchema(schema), toObject)
}

// stringMapGen is objectGen for categories transmitted as plain string pairs
// (cookies, headers). Values are rendered with fmt.Sprint, matching how they
// end up on the wire.
func stringMapGen(schema types.Schema, fixed map[string]interface{}, category string) *rapid.Generator[map[string]string] {
	if value, ok := fixed[category]; ok {
		return rapid.SampledFrom([]map[string]string{toStringMap(value)})
	}
	return rapid.Map(gen.FromSchema(schema), toStringMap)
}

// headerMapGen additionally filters generated header sets through the header
// validity predicate. Invalid draws are discarded and retried by the engine,
// bounded by its own give-up budget.
func headerMapGen(schema types.Schema, fixed map[string]interface{}) *rapid.Generator[map[string]string] {
	if value, ok := fixed[types.InHeaders]; ok {
		return rapid.SampledFrom([]map[string]string{toStringMap(value)})
	}
	return rapid.Map(gen.FromSchema(schema), toStringMap).Filter(IsValidHeaders)
}

func toObject(value interface{}) map[string]interface{} {
	if m, ok := value.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func toStringMap(value interface{}) map[string]string {
	out := make(map[string]string)
	switch m := value.(type) {
	case map[string]string:
		return m
	case map[string]interface{}:
		for name, v := range m {
			if s, ok := v.(string); ok {
				out[name] = s
				continue
			}
			out[name] = fmt.Sprint(v)
		}
	}
	return out
}
