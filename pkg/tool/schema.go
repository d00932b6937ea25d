package tool

// JSONSchema captures the subset of JSON Schema required for tool parameter
// validation and for advertising parameter shapes to models.
type JSONSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// Definition is the wire representation of a tool schema in the OpenAI
// function-calling format expected by OpenRouter.
type Definition struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function describes a single callable function inside a Definition.
type Function struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  *JSONSchema `json:"parameters,omitempty"`
}

// Define wraps a Tool into its wire Definition.
func Define(t Tool) Definition {
	return Definition{
		Type: "function",
		Function: Function{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		},
	}
}
