package tool

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultEndpoint = "https://deepsearch.jina.ai/v1/chat/completions"
	DefaultModel    = "jina-deepsearch-v1"

	// MaxTimeoutSeconds caps timeoutSeconds at one day.
	MaxTimeoutSeconds = 24 * 60 * 60
)

// Reasoning effort levels accepted by the DeepSearch API.
const (
	EffortLow    = "low"
	EffortMedium = "medium"
	EffortHigh   = "high"
)

// ErrMissingAPIKey is returned by Validate when no Jina API key is configured.
var ErrMissingAPIKey = errors.New("jina api key missing")

// InvalidValveError reports a valve whose value is outside its allowed range.
type InvalidValveError struct {
	Valve  string
	Value  any
	Reason string
}

func (e *InvalidValveError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Valve, e.Value, e.Reason)
}

// DeepSearchConfig holds the user-facing valves of the DeepSearch tool.
// JSON keys are the ones shown in the host settings UI.
type DeepSearchConfig struct {
	APIKey          string `json:"jinaApiKey" yaml:"jinaApiKey"`
	TimeoutSeconds  int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	ReasoningEffort string `json:"reasoningEffort" yaml:"reasoningEffort"` // low|medium|high
	BudgetTokens    int    `json:"budgetTokens" yaml:"budgetTokens"`
	MaxReturnedURLs int    `json:"maxReturnedUrls" yaml:"maxReturnedUrls"`
	NoDirectAnswer  bool   `json:"noDirectAnswer" yaml:"noDirectAnswer"`
	TeamSize        int    `json:"teamSize" yaml:"teamSize"`
	StreamByDefault bool   `json:"streamByDefault" yaml:"streamByDefault"`

	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
}

func DefaultDeepSearchConfig() DeepSearchConfig {
	return DeepSearchConfig{
		TimeoutSeconds:  60,
		ReasoningEffort: EffortLow,
		BudgetTokens:    500000,
		MaxReturnedURLs: 50,
		NoDirectAnswer:  true,
		TeamSize:        4,
		StreamByDefault: true,
		Endpoint:        DefaultEndpoint,
		Model:           DefaultModel,
	}
}

// NormalizeEffort lower-cases s and maps the "med" shorthand to "medium".
// Unknown values are returned trimmed but otherwise unchanged.
func NormalizeEffort(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "med" {
		return EffortMedium
	}
	return s
}

// Validate checks every valve. A missing key yields ErrMissingAPIKey; any
// other failure is an *InvalidValveError.
func (c DeepSearchConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	switch NormalizeEffort(c.ReasoningEffort) {
	case EffortLow, EffortMedium, EffortHigh:
	default:
		return &InvalidValveError{Valve: "reasoningEffort", Value: c.ReasoningEffort, Reason: "must be low, medium or high"}
	}
	if c.TimeoutSeconds < 1 {
		return &InvalidValveError{Valve: "timeoutSeconds", Value: c.TimeoutSeconds, Reason: "must be at least 1"}
	}
	if c.TimeoutSeconds > MaxTimeoutSeconds {
		return &InvalidValveError{Valve: "timeoutSeconds", Value: c.TimeoutSeconds, Reason: fmt.Sprintf("must be at most %d", MaxTimeoutSeconds)}
	}
	if c.BudgetTokens < 1 {
		return &InvalidValveError{Valve: "budgetTokens", Value: c.BudgetTokens, Reason: "must be at least 1"}
	}
	if c.MaxReturnedURLs < 1 {
		return &InvalidValveError{Valve: "maxReturnedUrls", Value: c.MaxReturnedURLs, Reason: "must be at least 1"}
	}
	if c.TeamSize < 1 {
		return &InvalidValveError{Valve: "teamSize", Value: c.TeamSize, Reason: "must be at least 1"}
	}
	return nil
}

// EndpointOrDefault returns the configured endpoint, falling back to the Jina URL.
func (c DeepSearchConfig) EndpointOrDefault() string {
	if e := strings.TrimSpace(c.Endpoint); e != "" {
		return e
	}
	return DefaultEndpoint
}

// ModelOrDefault returns the configured model, falling back to jina-deepsearch-v1.
func (c DeepSearchConfig) ModelOrDefault() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	return DefaultModel
}
