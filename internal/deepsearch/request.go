package deepsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/crystaldolphin/deepsearch/internal/config/tool"
)

// Message is one chat message in the request body.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Payload is the JSON body sent to the DeepSearch chat/completions endpoint.
// Every valve maps to exactly one field.
type Payload struct {
	Model           string    `json:"model"`
	Messages        []Message `json:"messages"`
	Stream          bool      `json:"stream"`
	ReasoningEffort string    `json:"reasoning_effort"`
	BudgetTokens    int       `json:"budget_tokens"`
	MaxReturnedURLs int       `json:"max_returned_urls,string"`
	NoDirectAnswer  bool      `json:"no_direct_answer"`
	TeamSize        int       `json:"team_size"`
}

// Validate checks query and cfg without touching the network.
func Validate(query string, cfg tool.DeepSearchConfig) error {
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, tool.ErrMissingAPIKey) {
			return &Error{Kind: KindAuth, Message: "Jina DeepSearch API key missing", Err: err}
		}
		return &Error{Kind: KindConfig, Message: "invalid configuration", Err: err}
	}
	if strings.TrimSpace(query) == "" {
		return &Error{Kind: KindConfig, Message: "query is required"}
	}
	return nil
}

// NewPayload builds the request body for query from the valves in cfg.
func NewPayload(query string, cfg tool.DeepSearchConfig, stream bool) (Payload, error) {
	if err := Validate(query, cfg); err != nil {
		return Payload{}, err
	}
	return Payload{
		Model:           cfg.ModelOrDefault(),
		Messages:        []Message{{Role: "user", Content: query}},
		Stream:          stream,
		ReasoningEffort: tool.NormalizeEffort(cfg.ReasoningEffort),
		BudgetTokens:    cfg.BudgetTokens,
		MaxReturnedURLs: cfg.MaxReturnedURLs,
		NoDirectAnswer:  cfg.NoDirectAnswer,
		TeamSize:        cfg.TeamSize,
	}, nil
}

// NewRequest builds the single outbound HTTP request for query. All
// validation happens here, before any network activity.
func NewRequest(ctx context.Context, query string, cfg tool.DeepSearchConfig, stream bool) (*http.Request, error) {
	payload, err := NewPayload(query, cfg, stream)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.EndpointOrDefault(), bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Kind: KindConfig, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(cfg.APIKey))
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	return req, nil
}
