package tool

import (
	"errors"
	"testing"
)

func validConfig() DeepSearchConfig {
	c := DefaultDeepSearchConfig()
	c.APIKey = "jina_test"
	return c
}

func TestDefaultDeepSearchConfig(t *testing.T) {
	c := DefaultDeepSearchConfig()
	if c.TimeoutSeconds != 60 || c.ReasoningEffort != "low" || c.BudgetTokens != 500000 ||
		c.MaxReturnedURLs != 50 || !c.NoDirectAnswer || c.TeamSize != 4 || !c.StreamByDefault {
		t.Errorf("unexpected defaults: %+v", c)
	}
}

func TestValidate_MissingKey(t *testing.T) {
	c := validConfig()
	c.APIKey = "   "
	if err := c.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DeepSearchConfig)
		valve  string
	}{
		{"extreme effort", func(c *DeepSearchConfig) { c.ReasoningEffort = "extreme" }, "reasoningEffort"},
		{"empty effort", func(c *DeepSearchConfig) { c.ReasoningEffort = "" }, "reasoningEffort"},
		{"zero timeout", func(c *DeepSearchConfig) { c.TimeoutSeconds = 0 }, "timeoutSeconds"},
		{"timeout over a day", func(c *DeepSearchConfig) { c.TimeoutSeconds = MaxTimeoutSeconds + 1 }, "timeoutSeconds"},
		{"overflowing timeout", func(c *DeepSearchConfig) { c.TimeoutSeconds = 1 << 40 }, "timeoutSeconds"},
		{"zero budget", func(c *DeepSearchConfig) { c.BudgetTokens = 0 }, "budgetTokens"},
		{"zero urls", func(c *DeepSearchConfig) { c.MaxReturnedURLs = 0 }, "maxReturnedUrls"},
		{"zero team", func(c *DeepSearchConfig) { c.TeamSize = 0 }, "teamSize"},
		{"negative team", func(c *DeepSearchConfig) { c.TeamSize = -3 }, "teamSize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			var ive *InvalidValveError
			if err := c.Validate(); !errors.As(err, &ive) {
				t.Fatalf("expected *InvalidValveError, got %v", err)
			}
			if ive.Valve != tt.valve {
				t.Errorf("expected valve %q, got %q", tt.valve, ive.Valve)
			}
		})
	}
}

func TestValidate_EffortSpellings(t *testing.T) {
	for _, e := range []string{"low", "medium", "high", "med", "HIGH", " Medium "} {
		c := validConfig()
		c.ReasoningEffort = e
		if err := c.Validate(); err != nil {
			t.Errorf("effort %q: unexpected error %v", e, err)
		}
	}
}

func TestNormalizeEffort(t *testing.T) {
	if got := NormalizeEffort("med"); got != EffortMedium {
		t.Errorf("expected medium, got %q", got)
	}
	if got := NormalizeEffort(" High "); got != EffortHigh {
		t.Errorf("expected high, got %q", got)
	}
}

func TestEndpointAndModelFallbacks(t *testing.T) {
	var c DeepSearchConfig
	if c.EndpointOrDefault() != DefaultEndpoint {
		t.Errorf("unexpected endpoint %q", c.EndpointOrDefault())
	}
	if c.ModelOrDefault() != DefaultModel {
		t.Errorf("unexpected model %q", c.ModelOrDefault())
	}
	c.Endpoint = "http://localhost:1234/v1/chat/completions"
	if c.EndpointOrDefault() != c.Endpoint {
		t.Errorf("expected override endpoint")
	}
}

func TestValidate_MaxTimeoutAccepted(t *testing.T) {
	c := validConfig()
	c.TimeoutSeconds = MaxTimeoutSeconds
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
