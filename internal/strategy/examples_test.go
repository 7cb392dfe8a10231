package strategy

import (
	"reflect"
	"testing"

	"apifuzz/internal/types"
)

func TestExamplesPinDeclaredCategory(t *testing.T) {
	endpoint := testEndpoint("POST")
	endpoint.Query["example"] = map[string]interface{}{"q": "x"}

	cases, err := Examples(endpoint)
	if err != nil {
		t.Fatalf("Examples() error = %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("Examples() returned %d cases, want 1", len(cases))
	}

	c := cases[0]
	if !reflect.DeepEqual(c.Query, map[string]interface{}{"q": "x"}) {
		t.Errorf("example case query = %v, want pinned example", c.Query)
	}
	// The other categories are generated as usual.
	if _, ok := c.PathParameters["id"]; !ok {
		t.Errorf("example case is missing generated path parameters: %v", c.PathParameters)
	}
	if !c.BodySet {
		t.Errorf("example case is missing a generated body")
	}
}

func TestExamplesOnePerCategory(t *testing.T) {
	endpoint := testEndpoint("POST")
	endpoint.Query["example"] = map[string]interface{}{"q": "x"}
	endpoint.Headers["example"] = map[string]interface{}{"X-Token": "fixed"}
	endpoint.Body["example"] = map[string]interface{}{"name": "example-name"}

	cases, err := Examples(endpoint)
	if err != nil {
		t.Fatalf("Examples() error = %v", err)
	}
	if len(cases) != 3 {
		t.Fatalf("Examples() returned %d cases, want one per declared example", len(cases))
	}

	var queryPinned, headersPinned, bodyPinned int
	for _, c := range cases {
		if reflect.DeepEqual(c.Query, map[string]interface{}{"q": "x"}) {
			queryPinned++
		}
		if c.Headers["X-Token"] == "fixed" {
			headersPinned++
		}
		if body, ok := c.Body.(map[string]interface{}); ok && body["name"] == "example-name" {
			bodyPinned++
		}
	}
	if queryPinned == 0 || headersPinned == 0 || bodyPinned == 0 {
		t.Errorf("each declared example must be pinned at least once: query=%d headers=%d body=%d",
			queryPinned, headersPinned, bodyPinned)
	}
}

func TestExamplesBodyIgnoredForGet(t *testing.T) {
	endpoint := testEndpoint("GET")
	endpoint.Body = types.Schema{
		"type":       "object",
		"properties": map[string]interface{}{},
		"example":    map[string]interface{}{"name": "ignored"},
	}

	cases, err := Examples(endpoint)
	if err != nil {
		t.Fatalf("Examples() error = %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("Examples() returned %d cases, want 1", len(cases))
	}
	if cases[0].BodySet {
		t.Errorf("GET example case has body %v, want none", cases[0].Body)
	}
}

func TestExamplesNoneDeclared(t *testing.T) {
	cases, err := Examples(testEndpoint("POST"))
	if err != nil {
		t.Fatalf("Examples() error = %v", err)
	}
	if len(cases) != 0 {
		t.Errorf("Examples() returned %d cases for an endpoint without examples", len(cases))
	}
}
