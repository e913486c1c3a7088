package gateway

// GatewayConfig holds the websocket host endpoint settings.
type GatewayConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{Host: "127.0.0.1", Port: 18791}
}
