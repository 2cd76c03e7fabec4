package tools

// Schema is the JSON Schema object describing a tool's arguments
type Schema struct {
	Type       string               `json:"type"`
	Properties map[string]*Property `json:"properties"`
	Required   []string             `json:"required,omitempty"`
}

// Property is one argument of a tool
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

type prop struct {
	name     string
	required bool
	*Property
}

func object(props ...prop) *Schema {
	s := &Schema{
		Type:       "object",
		Properties: make(map[string]*Property, len(props)),
	}
	for _, p := range props {
		s.Properties[p.name] = p.Property
		if p.required {
			s.Required = append(s.Required, p.name)
		}
	}
	return s
}

func str(name, desc string) prop {
	return prop{name: name, required: true, Property: &Property{Type: "string", Description: desc}}
}

func num(name, desc string) prop {
	return prop{name: name, required: true, Property: &Property{Type: "number", Description: desc}}
}

func boolean(name, desc string) prop {
	return prop{name: name, required: true, Property: &Property{Type: "boolean", Description: desc}}
}

func enum(name, desc string, values ...string) prop {
	return prop{name: name, required: true, Property: &Property{Type: "string", Description: desc, Enum: values}}
}

func optional(p prop) prop {
	p.required = false
	return p
}

// Map renders the schema as a generic JSON object
func (s *Schema) Map() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		m := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			m["enum"] = p.Enum
		}
		props[name] = m
	}

	out := map[string]any{
		"type":       s.Type,
		"properties": props,
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}
