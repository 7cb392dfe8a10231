// Package gen translates JSON Schema fragments into rapid generators.
//
// The translation is eager: FromSchema walks the whole schema up front and
// panics with *SchemaError on anything it cannot turn into a generator, so
// callers can fail fast before any value is drawn. Drawing itself never fails.
package gen

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"pgregory.net/rapid"
)

// SchemaError is the panic value raised when a schema cannot be translated
// into a generator (malformed or unsatisfiable).
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s", e.Reason)
}

func schemaErrorf(format string, args ...interface{}) {
	panic(&SchemaError{Reason: fmt.Sprintf(format, args...)})
}

// RegistrationError reports a misuse of the string-format registry. The
// registry is left untouched when it is returned.
type RegistrationError struct {
	Message string
}

func (e *RegistrationError) Error() string {
	return e.Message
}

// Warnings are advisory: the translation falls back to a looser generator and
// keeps going. The handler can be swapped, e.g. to silence warnings while a
// category is pinned to a fixed example.
var warnHandler = func(format string, args ...interface{}) {
	log.Printf("gen: "+format, args...)
}

// SetWarningHandler installs a handler for non-fatal translation warnings and
// returns the previous one. Not safe for concurrent use with translation.
func SetWarningHandler(h func(format string, args ...interface{})) func(format string, args ...interface{}) {
	prev := warnHandler
	if h == nil {
		h = func(string, ...interface{}) {}
	}
	warnHandler = h
	return prev
}

func fakerString(fn func(*gofakeit.Faker) string) *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		f := gofakeit.New(rapid.Uint64().Draw(t, "seed"))
		return fn(f)
	})
}

// String-format vocabulary. Built-ins cover the formats the parser commonly
// sees in OpenAPI documents; RegisterStringFormat extends the set.
var stringFormats = map[string]*rapid.Generator[string]{
	"email":    fakerString(func(f *gofakeit.Faker) string { return f.Email() }),
	"uuid":     fakerString(func(f *gofakeit.Faker) string { return f.UUID() }),
	"uri":      fakerString(func(f *gofakeit.Faker) string { return f.URL() }),
	"url":      fakerString(func(f *gofakeit.Faker) string { return f.URL() }),
	"hostname": fakerString(func(f *gofakeit.Faker) string { return f.DomainName() }),
	"ipv4":     fakerString(func(f *gofakeit.Faker) string { return f.IPv4Address() }),
	"ipv6":     fakerString(func(f *gofakeit.Faker) string { return f.IPv6Address() }),
	"date":     fakerString(func(f *gofakeit.Faker) string { return f.Date().Format("2006-01-02") }),
	"date-time": fakerString(func(f *gofakeit.Faker) string {
		return f.Date().Format(time.RFC3339)
	}),
	"binary": rapid.String(),
}

// RegisterStringFormat extends the string-format vocabulary with a custom
// generator. Registration overwrites an existing format of the same name.
func RegisterStringFormat(name string, strategy *rapid.Generator[string]) error {
	if name == "" {
		return &RegistrationError{Message: "format name must be a non-empty string"}
	}
	if strategy == nil {
		return &RegistrationError{Message: fmt.Sprintf("strategy for format %q must be a generator, not nil", name)}
	}
	stringFormats[name] = strategy
	return nil
}

// HasStringFormat reports whether a format name is part of the vocabulary.
func HasStringFormat(name string) bool {
	_, ok := stringFormats[name]
	return ok
}

type drawFn func(t *rapid.T) interface{}

// fixedDraw returns a draw for a value known at compile time. The engine
// rejects draw groups that consume no bitstream data, so even fixed values
// burn one draw.
func fixedDraw(value interface{}) drawFn {
	return func(t *rapid.T) interface{} {
		rapid.Bool().Draw(t, "fixed")
		return value
	}
}

// FromSchema builds a generator of values conforming to the given JSON Schema
// fragment. Panics with *SchemaError when the schema cannot be translated.
func FromSchema(schema map[string]interface{}) *rapid.Generator[interface{}] {
	draw := compile(schema, 0)
	return rapid.Custom(draw)
}

const maxDepth = 6

func compile(schema map[string]interface{}, depth int) drawFn {
	if depth > maxDepth {
		return fixedDraw(nil)
	}
	if schema == nil {
		schema = map[string]interface{}{}
	}
	if c, ok := schema["const"]; ok {
		return fixedDraw(c)
	}
	if raw, ok := schema["enum"]; ok {
		values, ok := raw.([]interface{})
		if !ok || len(values) == 0 {
			schemaErrorf("enum must be a non-empty array, got %v", raw)
		}
		return func(t *rapid.T) interface{} {
			return rapid.SampledFrom(values).Draw(t, "enum")
		}
	}
	for _, key := range []string{"anyOf", "oneOf"} {
		if raw, ok := schema[key]; ok {
			return compileBranches(key, raw, depth)
		}
	}
	if raw, ok := schema["allOf"]; ok {
		return compile(mergeAllOf(raw), depth)
	}

	draw := compileByType(schema, depth)
	if nullable, _ := schema["nullable"].(bool); nullable {
		return func(t *rapid.T) interface{} {
			if rapid.IntRange(0, 9).Draw(t, "nullable") == 0 {
				return nil
			}
			return draw(t)
		}
	}
	return draw
}

func compileBranches(key string, raw interface{}, depth int) drawFn {
	branches, ok := raw.([]interface{})
	if !ok || len(branches) == 0 {
		schemaErrorf("%s must be a non-empty array, got %v", key, raw)
	}
	draws := make([]drawFn, len(branches))
	for i, branch := range branches {
		sub, ok := branch.(map[string]interface{})
		if !ok {
			schemaErrorf("%s[%d] must be a schema object, got %v", key, i, branch)
		}
		draws[i] = compile(sub, depth+1)
	}
	return func(t *rapid.T) interface{} {
		i := rapid.IntRange(0, len(draws)-1).Draw(t, key)
		return draws[i](t)
	}
}

func mergeAllOf(raw interface{}) map[string]interface{} {
	branches, ok := raw.([]interface{})
	if !ok || len(branches) == 0 {
		schemaErrorf("allOf must be a non-empty array, got %v", raw)
	}
	merged := make(map[string]interface{})
	for i, branch := range branches {
		sub, ok := branch.(map[string]interface{})
		if !ok {
			schemaErrorf("allOf[%d] must be a schema object, got %v", i, branch)
		}
		for k, v := range sub {
			merged[k] = v
		}
	}
	return merged
}

func compileByType(schema map[string]interface{}, depth int) drawFn {
	switch typ := schema["type"].(type) {
	case string:
		return compileSingleType(typ, schema, depth)
	case []interface{}:
		if len(typ) == 0 {
			schemaErrorf("type list must not be empty")
		}
		draws := make([]drawFn, len(typ))
		for i, raw := range typ {
			name, ok := raw.(string)
			if !ok {
				schemaErrorf("type list entries must be strings, got %v", raw)
			}
			draws[i] = compileSingleType(name, schema, depth)
		}
		return func(t *rapid.T) interface{} {
			i := rapid.IntRange(0, len(draws)-1).Draw(t, "type")
			return draws[i](t)
		}
	case nil:
		return compileUntyped(schema, depth)
	}
	schemaErrorf("type must be a string or an array of strings, got %v", schema["type"])
	return nil
}

// compileUntyped infers a type for schemas that do not declare one.
func compileUntyped(schema map[string]interface{}, depth int) drawFn {
	if _, ok := schema["properties"]; ok {
		return compileObject(schema, depth)
	}
	if _, ok := schema["items"]; ok {
		return compileArray(schema, depth)
	}
	scalars := []drawFn{
		compileString(schema),
		compileInteger(schema),
		compileNumber(schema),
		func(t *rapid.T) interface{} { return rapid.Bool().Draw(t, "bool") },
		fixedDraw(nil),
	}
	return func(t *rapid.T) interface{} {
		i := rapid.IntRange(0, len(scalars)-1).Draw(t, "untyped")
		return scalars[i](t)
	}
}

func compileSingleType(name string, schema map[string]interface{}, depth int) drawFn {
	switch name {
	case "string":
		return compileString(schema)
	case "integer":
		return compileInteger(schema)
	case "number":
		return compileNumber(schema)
	case "boolean":
		return func(t *rapid.T) interface{} { return rapid.Bool().Draw(t, "bool") }
	case "null":
		return fixedDraw(nil)
	case "array":
		return compileArray(schema, depth)
	case "object":
		return compileObject(schema, depth)
	}
	schemaErrorf("unsupported type %q", name)
	return nil
}

func compileString(schema map[string]interface{}) drawFn {
	if format, ok := schema["format"].(string); ok {
		if g, found := stringFormats[format]; found {
			return func(t *rapid.T) interface{} { return g.Draw(t, "format") }
		}
		warnHandler("unsupported string format %q, generating a plain string", format)
	}
	if pattern, ok := schema["pattern"].(string); ok {
		if _, err := regexp.Compile(pattern); err != nil {
			schemaErrorf("invalid pattern %q: %v", pattern, err)
		}
		g := rapid.StringMatching(pattern)
		return func(t *rapid.T) interface{} { return g.Draw(t, "pattern") }
	}
	minLen := intKeyword(schema, "minLength", 0)
	maxLen := intKeyword(schema, "maxLength", -1)
	if maxLen >= 0 && maxLen < minLen {
		schemaErrorf("maxLength %d is below minLength %d", maxLen, minLen)
	}
	g := rapid.StringN(minLen, maxLen, -1)
	return func(t *rapid.T) interface{} { return g.Draw(t, "string") }
}

func compileInteger(schema map[string]interface{}) drawFn {
	lo := int64(math.MinInt32)
	hi := int64(math.MaxInt32)
	if v, ok := numKeyword(schema, "minimum"); ok {
		lo = int64(math.Ceil(v))
	}
	if v, ok := numKeyword(schema, "maximum"); ok {
		hi = int64(math.Floor(v))
	}
	if v, ok := numKeyword(schema, "exclusiveMinimum"); ok {
		lo = int64(math.Floor(v)) + 1
	}
	if v, ok := numKeyword(schema, "exclusiveMaximum"); ok {
		hi = int64(math.Ceil(v)) - 1
	}
	multiple := int64(1)
	if v, ok := numKeyword(schema, "multipleOf"); ok {
		if v <= 0 || v != math.Trunc(v) {
			schemaErrorf("integer multipleOf must be a positive integer, got %v", v)
		}
		multiple = int64(v)
	}
	lo = ceilDiv(lo, multiple)
	hi = floorDiv(hi, multiple)
	if lo > hi {
		schemaErrorf("integer bounds are unsatisfiable: minimum above maximum")
	}
	g := rapid.Int64Range(lo, hi)
	return func(t *rapid.T) interface{} { return g.Draw(t, "integer") * multiple }
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func compileNumber(schema map[string]interface{}) drawFn {
	lo := -1e6
	hi := 1e6
	if v, ok := numKeyword(schema, "minimum"); ok {
		lo = v
	}
	if v, ok := numKeyword(schema, "maximum"); ok {
		hi = v
	}
	if v, ok := numKeyword(schema, "exclusiveMinimum"); ok {
		lo = math.Nextafter(v, math.Inf(1))
	}
	if v, ok := numKeyword(schema, "exclusiveMaximum"); ok {
		hi = math.Nextafter(v, math.Inf(-1))
	}
	if lo > hi {
		schemaErrorf("number bounds are unsatisfiable: minimum above maximum")
	}
	g := rapid.Float64Range(lo, hi)
	return func(t *rapid.T) interface{} { return g.Draw(t, "number") }
}

func compileArray(schema map[string]interface{}, depth int) drawFn {
	var itemDraw drawFn
	if raw, ok := schema["items"]; ok {
		items, ok := raw.(map[string]interface{})
		if !ok {
			schemaErrorf("items must be a schema object, got %v", raw)
		}
		itemDraw = compile(items, depth+1)
	} else {
		warnHandler("array without items schema, generating empty arrays")
		return func(t *rapid.T) interface{} {
			rapid.Bool().Draw(t, "fixed")
			return []interface{}{}
		}
	}
	minItems := intKeyword(schema, "minItems", 0)
	maxItems := intKeyword(schema, "maxItems", minItems+3)
	if maxItems < minItems {
		schemaErrorf("maxItems %d is below minItems %d", maxItems, minItems)
	}
	unique, _ := schema["uniqueItems"].(bool)
	return func(t *rapid.T) interface{} {
		n := rapid.IntRange(minItems, maxItems).Draw(t, "len")
		out := make([]interface{}, 0, n)
		seen := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			item := itemDraw(t)
			if unique {
				// Uniqueness is best effort: duplicate draws are skipped, so
				// the result can undershoot minItems on tiny value spaces.
				key := fmt.Sprint(item)
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			out = append(out, item)
		}
		return out
	}
}

func compileObject(schema map[string]interface{}, depth int) drawFn {
	rawProps, ok := schema["properties"].(map[string]interface{})
	if !ok {
		if _, present := schema["properties"]; present {
			schemaErrorf("properties must be a schema object map, got %v", schema["properties"])
		}
		return emptyObjectDraw
	}
	required := make(map[string]bool)
	if raw, present := schema["required"]; present {
		names, ok := raw.([]interface{})
		if !ok {
			schemaErrorf("required must be an array of property names, got %v", raw)
		}
		for _, n := range names {
			name, ok := n.(string)
			if !ok {
				schemaErrorf("required entries must be strings, got %v", n)
			}
			required[name] = true
		}
	}

	names := make([]string, 0, len(rawProps))
	for name := range rawProps {
		names = append(names, name)
	}
	if len(names) == 0 {
		return emptyObjectDraw
	}
	sort.Strings(names)

	draws := make(map[string]drawFn, len(names))
	for _, name := range names {
		prop, ok := rawProps[name].(map[string]interface{})
		if !ok {
			schemaErrorf("property %q must be a schema object, got %v", name, rawProps[name])
		}
		draws[name] = compile(prop, depth+1)
	}

	return func(t *rapid.T) interface{} {
		out := make(map[string]interface{}, len(names))
		for _, name := range names {
			if !required[name] && !rapid.Bool().Draw(t, "has "+name) {
				continue
			}
			out[name] = draws[name](t)
		}
		return out
	}
}

// emptyObjectDraw allocates a fresh map per draw so callers never share one.
func emptyObjectDraw(t *rapid.T) interface{} {
	rapid.Bool().Draw(t, "fixed")
	return map[string]interface{}{}
}

func numKeyword(schema map[string]interface{}, key string) (float64, bool) {
	switch v := schema[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		// Draft-4 style boolean exclusive bounds modify minimum/maximum and
		// are handled by those keywords already.
		return 0, false
	case nil:
		return 0, false
	}
	schemaErrorf("%s must be a number, got %v", key, schema[key])
	return 0, false
}

func intKeyword(schema map[string]interface{}, key string, fallback int) int {
	v, ok := numKeyword(schema, key)
	if !ok {
		return fallback
	}
	return int(v)
}
