package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/crystaldolphin/deepsearch/internal/deepsearch"
)

const noContentMessage = "DeepSearch returned no readable content."

// Searcher runs one DeepSearch round trip. *deepsearch.Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string, opts deepsearch.SearchOptions) (deepsearch.Result, error)
}

// DeepSearchTool exposes Jina DeepSearch to a host. Failures are returned
// as readable "Error: ..." strings so only the single call fails.
type DeepSearchTool struct {
	searcher Searcher
}

// NewDeepSearchTool creates a DeepSearchTool backed by s.
func NewDeepSearchTool(s Searcher) *DeepSearchTool {
	return &DeepSearchTool{searcher: s}
}

func (t *DeepSearchTool) Name() string { return string(ToolDeepSearch) }
func (t *DeepSearchTool) Description() string {
	return "Deep web research via Jina DeepSearch. Slow (may take minutes); returns an answer with source URLs as JSON."
}
func (t *DeepSearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "The research question"
			},
			"stream": {
				"type": "boolean",
				"description": "Stream progress events; defaults to the streamByDefault setting"
			}
		},
		"required": ["query"]
	}`)
}

func (t *DeepSearchTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query, _ := params["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "Error: query is required", nil
	}

	opts := deepsearch.SearchOptions{Emitter: InvocationCtx(ctx).Emitter}
	if s, ok := params["stream"].(bool); ok {
		opts.Stream = &s
	}

	res, err := t.searcher.Search(ctx, query, opts)
	if err != nil {
		return UserMessage(err), nil
	}
	if res.Content == "" {
		res.Content = noContentMessage
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return string(out), nil
}

// UserMessage renders a search failure as the text shown to the user.
func UserMessage(err error) string {
	var de *deepsearch.Error
	if !errors.As(err, &de) {
		return fmt.Sprintf("Unexpected error during DeepSearch: %v", err)
	}
	switch {
	case de.Status != 0:
		return fmt.Sprintf("API Error %d: %s", de.Status, de.Body)
	case de.Kind == deepsearch.KindAuth:
		return "Error: Jina DeepSearch API key missing. Set it in tool settings."
	case de.Kind == deepsearch.KindTimeout:
		return "Error: request to DeepSearch timed out."
	case de.Kind == deepsearch.KindCanceled:
		return "Error: DeepSearch request canceled."
	case de.Kind == deepsearch.KindConfig:
		return "Error: " + de.Error()
	default:
		return fmt.Sprintf("Unexpected error during DeepSearch: %v", de)
	}
}
