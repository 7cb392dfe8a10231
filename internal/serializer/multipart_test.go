package serializer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoerceFormData(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]interface{}
		want  map[string]interface{}
	}{
		{
			name:  "float is coerced to its string bytes",
			input: map[string]interface{}{"f": 3.14},
			want:  map[string]interface{}{"f": []byte("3.14")},
		},
		{
			name:  "text stays text",
			input: map[string]interface{}{"f": "text"},
			want:  map[string]interface{}{"f": "text"},
		},
		{
			name:  "integers stay integers",
			input: map[string]interface{}{"f": 7},
			want:  map[string]interface{}{"f": 7},
		},
		{
			name:  "bytes stay bytes",
			input: map[string]interface{}{"f": []byte{0x01}},
			want:  map[string]interface{}{"f": []byte{0x01}},
		},
		{
			name:  "lists coerce only non-form-safe elements",
			input: map[string]interface{}{"f": []interface{}{1, 3.14}},
			want:  map[string]interface{}{"f": []interface{}{1, []byte("3.14")}},
		},
		{
			name:  "booleans are coerced",
			input: map[string]interface{}{"f": true},
			want:  map[string]interface{}{"f": []byte("true")},
		},
		{
			name:  "nested objects are coerced to their string form",
			input: map[string]interface{}{"f": map[string]interface{}{"a": 1}},
			want:  map[string]interface{}{"f": []byte("map[a:1]")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceFormData(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CoerceFormData() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToBytesDropsInvalidUTF8(t *testing.T) {
	got := toBytes("ok\xffend")
	if string(got) != "okend" {
		t.Errorf("toBytes() = %q, want invalid sequences dropped", got)
	}
}
