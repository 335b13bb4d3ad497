package config

import "fmt"

// ServerConfig holds configuration for the watch mode HTTP server
type ServerConfig struct {
	Port string
}

// LoadServerConfig loads server configuration from environment variables
func LoadServerConfig(getenv func(string) string) ServerConfig {
	port := getenv("PORT")
	if port == "" {
		port = "9090" // Default to port 9090
	}

	return ServerConfig{
		Port: port,
	}
}

// Addr is the listen address for the configured port
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}
