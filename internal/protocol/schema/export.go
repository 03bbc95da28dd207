package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// JSONSchema documents s as a draft 2020-12 JSON Schema document. The export
// is for listing and client tooling; Check is the only enforcement path.
func JSONSchema(s Schema) *jsonschema.Schema {
	out := toJSONSchema(s)
	out.Version = jsonschema.Version
	return out
}

func toJSONSchema(s Schema) *jsonschema.Schema {
	out := &jsonschema.Schema{Description: s.description}
	switch s.kind {
	case KindAny:
	case KindNull:
		out.Type = "null"
	case KindBool:
		out.Type = "boolean"
	case KindNumber:
		out.Type = "number"
		if s.integer {
			out.Type = "integer"
		}
		if s.min != nil {
			out.Minimum = json.Number(formatNumber(*s.min))
		}
		if s.max != nil {
			out.Maximum = json.Number(formatNumber(*s.max))
		}
	case KindString:
		out.Type = "string"
		out.MinLength = uintPtr(s.minLen)
		out.MaxLength = uintPtr(s.maxLen)
		if s.pattern != nil {
			out.Pattern = s.pattern.String()
		}
		for _, v := range s.oneOf {
			out.Enum = append(out.Enum, v)
		}
	case KindList:
		out.Type = "array"
		out.Items = toJSONSchema(*s.elem)
		out.MinItems = uintPtr(s.minItems)
		out.MaxItems = uintPtr(s.maxItems)
	case KindFixedSequence:
		out.Type = "array"
		for _, es := range s.elems {
			out.PrefixItems = append(out.PrefixItems, toJSONSchema(es))
		}
		n := len(s.elems)
		out.MinItems = uintPtr(&n)
		out.Items = jsonschema.FalseSchema
	case KindRecord:
		out.Type = "object"
		out.Properties = jsonschema.NewProperties()
		for _, f := range s.fields {
			out.Properties.Set(f.Name, toJSONSchema(f.Schema))
			if !f.Optional {
				out.Required = append(out.Required, f.Name)
			}
		}
		if !s.open {
			out.AdditionalProperties = jsonschema.FalseSchema
		}
	case KindMap:
		out.Type = "object"
		out.AdditionalProperties = toJSONSchema(*s.elem)
		out.MinProperties = uintPtr(s.minItems)
		out.MaxProperties = uintPtr(s.maxItems)
	case KindAnyOf:
		for _, opt := range s.options {
			out.AnyOf = append(out.AnyOf, toJSONSchema(opt))
		}
	}
	return out
}

func uintPtr(n *int) *uint64 {
	if n == nil || *n < 0 {
		return nil
	}
	v := uint64(*n)
	return &v
}
