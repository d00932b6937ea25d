package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownTool reports a dispatch against a name that was never registered.
var ErrUnknownTool = errors.New("tool: unknown tool")

// Registry keeps the mapping between tool names and implementations. The
// registration order is preserved so the schema set advertised to models is
// stable across calls.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]Tool
	order     []string
	validator Validator
}

// NewRegistry creates a registry backed by the default validator.
func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]Tool),
		validator: DefaultValidator{},
	}
}

// Register inserts a tool when its name is not in use.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool is nil")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}

	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Get fetches a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Definitions produces the schema set for all registered tools in
// registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, Define(r.tools[name]))
	}
	return defs
}

// SetValidator swaps the validator instance used before execution.
func (r *Registry) SetValidator(v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validator = v
}

// Validate checks that every declared schema is structurally usable. It is
// called once at startup so malformed tool wiring fails fast rather than at
// the first model request.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		schema := r.tools[name].Schema()
		if schema == nil {
			continue
		}
		if schema.Type != "object" {
			return fmt.Errorf("tool %s: schema root must be an object, got %q", name, schema.Type)
		}
		for _, field := range schema.Required {
			if _, ok := schema.Properties[field]; !ok {
				return fmt.Errorf("tool %s: required field %s has no property definition", name, field)
			}
		}
	}
	return nil
}

// Execute runs a registered tool after schema validation. Unknown names
// resolve to ErrUnknownTool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	t, err := r.Get(name)
	if err != nil {
		return "", err
	}

	if schema := t.Schema(); schema != nil {
		r.mu.RLock()
		validator := r.validator
		r.mu.RUnlock()

		if validator != nil {
			if err := validator.Validate(args, schema); err != nil {
				return "", fmt.Errorf("tool %s validation failed: %w", name, err)
			}
		}
	}

	return t.Execute(ctx, args)
}

// Dispatch executes a tool and never fails: every error is rendered as
// descriptive text so the caller can always append a tool-role message to the
// transcript.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) string {
	result, err := r.Execute(ctx, name, args)
	switch {
	case errors.Is(err, ErrUnknownTool):
		return fmt.Sprintf("Error: unknown tool %q", name)
	case err != nil:
		return fmt.Sprintf("Error executing tool %s: %v", name, err)
	default:
		return result
	}
}
