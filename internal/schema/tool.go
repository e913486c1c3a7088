// Package schema holds the contracts shared between the tool implementations
// and the hosts that call them.
package schema

import (
	"context"
	"encoding/json"
)

// Tool is the interface every host-callable tool must satisfy.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (string, error)
}
