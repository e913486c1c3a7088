package tool

// ToolsConfig groups all tool-level settings.
type ToolsConfig struct {
	DeepSearch DeepSearchConfig `json:"deepsearch" yaml:"deepsearch"`
}

func DefaultToolConfigs() ToolsConfig {
	return ToolsConfig{DeepSearch: DefaultDeepSearchConfig()}
}
