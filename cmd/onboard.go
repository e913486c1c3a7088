package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/deepsearch/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := configPath()

	if _, err := os.Stat(cfgPath); err == nil {
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	fmt.Printf("\n%s deepsearch is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Set tools.deepsearch.jinaApiKey in %s (or export %s)\n", cfgPath, config.APIKeyEnv)
	fmt.Println("     Get one at: https://jina.ai/?sui=apikey")
	fmt.Printf("  2. Search: deepsearch search \"What changed in Go 1.25?\"\n")
	return nil
}
