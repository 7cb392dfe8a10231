package serializer

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func jsonArgs(value interface{}) map[string]interface{} {
	if b, ok := value.([]byte); ok {
		// Raw payloads can come from explicit examples.
		return map[string]interface{}{"data": b}
	}
	if value == nil {
		// A nil payload is a generated JSON null; an absent body never
		// reaches a serializer. Sending literal null bytes keeps the two
		// distinguishable on the transport side, where a nil "json" argument
		// would mean "no body".
		return map[string]interface{}{"data": []byte("null")}
	}
	return map[string]interface{}{"json": value}
}

type jsonSerializer struct{}

func (jsonSerializer) AsClient(_ *Context, value interface{}) (map[string]interface{}, error) {
	return jsonArgs(value), nil
}

func (jsonSerializer) AsHandler(_ *Context, value interface{}) (map[string]interface{}, error) {
	return jsonArgs(value), nil
}

func yamlArgs(value interface{}) (map[string]interface{}, error) {
	if b, ok := value.([]byte); ok {
		return map[string]interface{}{"data": b}, nil
	}
	out, err := yaml.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload as YAML: %w", err)
	}
	return map[string]interface{}{"data": string(out)}, nil
}

type yamlSerializer struct{}

func (yamlSerializer) AsClient(_ *Context, value interface{}) (map[string]interface{}, error) {
	return yamlArgs(value)
}

func (yamlSerializer) AsHandler(_ *Context, value interface{}) (map[string]interface{}, error) {
	return yamlArgs(value)
}

type xmlSerializer struct{}

func (xmlSerializer) AsClient(ctx *Context, value interface{}) (map[string]interface{}, error) {
	data, err := encodeXML(value, ctx.RawPayloadSchema(), ctx.ResolvedPayloadSchema())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"data": data}, nil
}

func (xmlSerializer) AsHandler(ctx *Context, value interface{}) (map[string]interface{}, error) {
	data, err := encodeXML(value, ctx.RawPayloadSchema(), ctx.ResolvedPayloadSchema())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"data": data}, nil
}

type multipartSerializer struct{}

func (multipartSerializer) AsClient(ctx *Context, value interface{}) (map[string]interface{}, error) {
	if b, ok := value.([]byte); ok {
		return map[string]interface{}{"data": b}, nil
	}
	form, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("multipart payload must be an object, got %T", value)
	}
	files, data := ctx.Case.Operation.PrepareMultipart(CoerceFormData(form))
	return map[string]interface{}{"files": files, "data": data}, nil
}

func (multipartSerializer) AsHandler(_ *Context, value interface{}) (map[string]interface{}, error) {
	// The handler transport encodes the form itself, so the value goes
	// through uncoerced.
	return map[string]interface{}{"data": value}, nil
}

type urlEncodedFormSerializer struct{}

func (urlEncodedFormSerializer) AsClient(_ *Context, value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"data": value}, nil
}

func (urlEncodedFormSerializer) AsHandler(_ *Context, value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"data": value}, nil
}

type textSerializer struct{}

func (textSerializer) AsClient(_ *Context, value interface{}) (map[string]interface{}, error) {
	if b, ok := value.([]byte); ok {
		return map[string]interface{}{"data": b}, nil
	}
	return map[string]interface{}{"data": []byte(fmt.Sprint(value))}, nil
}

func (textSerializer) AsHandler(_ *Context, value interface{}) (map[string]interface{}, error) {
	if b, ok := value.([]byte); ok {
		return map[string]interface{}{"data": b}, nil
	}
	// The handler transport takes the string form directly.
	return map[string]interface{}{"data": fmt.Sprint(value)}, nil
}

type octetStreamSerializer struct{}

func (octetStreamSerializer) AsClient(_ *Context, value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"data": value}, nil
}

func (octetStreamSerializer) AsHandler(_ *Context, value interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"data": value}, nil
}
