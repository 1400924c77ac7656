package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoSchema indicates a parse attempt for a bundle without a schema.
var ErrNoSchema = errors.New("bundle has no structured schema")

// Structured is a successfully parsed structured completion result. Value
// holds one of *ProjectInfo, *SkillAssessment, or *ContactResponse depending
// on Schema.
type Structured struct {
	Schema Schema
	Value  any
}

// ParseStructured parses raw model output against the given schema.
//
// Models frequently wrap JSON in markdown code fences; those are stripped
// before unmarshaling. Callers are expected to fall back to the raw text on
// error rather than failing the request.
func ParseStructured(schema Schema, raw string) (*Structured, error) {
	if schema == SchemaNone {
		return nil, ErrNoSchema
	}

	payload := stripCodeFences(raw)

	var value any
	switch schema {
	case SchemaProject:
		value = &ProjectInfo{}
	case SchemaSkill:
		value = &SkillAssessment{}
	case SchemaContact:
		value = &ContactResponse{}
	default:
		return nil, fmt.Errorf("unknown schema %q", schema)
	}

	if err := json.Unmarshal([]byte(payload), value); err != nil {
		return nil, fmt.Errorf("parsing %s output: %w", schema, err)
	}

	return &Structured{Schema: schema, Value: value}, nil
}

// stripCodeFences removes a surrounding markdown code fence, if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the opening fence
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "json" || first == "" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
