package strategy

import (
	"apifuzz/internal/gen"
	"apifuzz/internal/types"
)

// Examples materializes one case per parameter category whose schema declares
// a literal "example" value: the category is pinned to the example and every
// other category is generated independently. The resulting cases are run as a
// fixed corpus in addition to randomized exploration.
//
// Categories are visited in no particular order; each yields an independent
// case, so ordering carries no meaning.
func Examples(endpoint *types.Endpoint) ([]*types.Case, error) {
	// Translating a schema for a pinned category can warn about constraints
	// that are redundant once the value is fixed. Those warnings are noise
	// here and must not abort extraction.
	prev := gen.SetWarningHandler(func(string, ...interface{}) {})
	defer gen.SetWarningHandler(prev)

	withExample := make(map[string]interface{})
	for _, category := range types.Categories {
		schema, err := endpoint.CategorySchema(category)
		if err != nil {
			return nil, err
		}
		if example, ok := schema["example"]; ok {
			withExample[category] = example
		}
	}

	var cases []*types.Case
	for category, example := range withExample {
		g, err := buildCaseStrategy(endpoint, map[string]interface{}{category: example})
		if err != nil {
			return nil, err
		}
		cases = append(cases, g.Example(len(cases)))
	}
	return cases, nil
}
