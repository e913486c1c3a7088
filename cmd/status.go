package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/deepsearch/internal/config"
	"github.com/crystaldolphin/deepsearch/internal/config/tool"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show deepsearch configuration status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := configPath()

	fmt.Printf("%s deepsearch Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:    %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	ds := cfg.DeepSearch()
	keyMark := "(not set)"
	if ds.APIKey != "" {
		keyMark = "✓ " + maskKey(ds.APIKey)
	}
	fmt.Printf("API key:   %s\n", keyMark)
	fmt.Printf("Endpoint:  %s\n", ds.EndpointOrDefault())
	fmt.Printf("Model:     %s\n", ds.ModelOrDefault())
	fmt.Printf("Gateway:   %s:%d\n\n", cfg.Gateway.Host, cfg.Gateway.Port)

	fmt.Println("Valves:")
	fmt.Printf("  %-18s %ds\n", "timeout", ds.TimeoutSeconds)
	fmt.Printf("  %-18s %s\n", "reasoning effort", tool.NormalizeEffort(ds.ReasoningEffort))
	fmt.Printf("  %-18s %d\n", "budget tokens", ds.BudgetTokens)
	fmt.Printf("  %-18s %d\n", "max returned urls", ds.MaxReturnedURLs)
	fmt.Printf("  %-18s %v\n", "no direct answer", ds.NoDirectAnswer)
	fmt.Printf("  %-18s %d\n", "team size", ds.TeamSize)
	fmt.Printf("  %-18s %v\n", "stream by default", ds.StreamByDefault)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("\n✗ %v\n", err)
	} else {
		fmt.Println("\n✓ Configuration valid")
	}
	return nil
}

// maskKey keeps the first and last four characters of key.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}
