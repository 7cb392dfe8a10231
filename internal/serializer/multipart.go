package serializer

import (
	"fmt"
	"strings"
)

// CoerceFormData makes generated data suitable for sending as multipart.
//
// Loose schemas can produce values that have no multipart representation
// (nested objects, floats, booleans). Those are converted to bytes via their
// string form instead of failing, deliberately trading strict schema
// compliance for a sendable payload. List-valued fields are coerced per
// element.
func CoerceFormData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for name, value := range data {
		if items, ok := value.([]interface{}); ok {
			coerced := make([]interface{}, len(items))
			for i, item := range items {
				if shouldCoerceToBytes(item) {
					coerced[i] = toBytes(item)
				} else {
					coerced[i] = item
				}
			}
			out[name] = coerced
			continue
		}
		if shouldCoerceToBytes(value) {
			out[name] = toBytes(value)
			continue
		}
		out[name] = value
	}
	return out
}

// Bytes, text and integers are fine in form fields; everything else is not.
func shouldCoerceToBytes(item interface{}) bool {
	switch item.(type) {
	case []byte, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return false
	}
	return true
}

// toBytes renders the value as text, dropping anything that cannot be
// encoded rather than failing.
func toBytes(value interface{}) []byte {
	return []byte(strings.ToValidUTF8(fmt.Sprint(value), ""))
}
