package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/nkv/lib/engine"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the server.
type ServerConfig struct {
	// Name is the display name of this server instance (used in logs)
	Name string

	// HTTP api settings
	Endpoint string

	// Durable storage parameters (empty DSN runs memory-only)
	DatabaseDSN string

	// Authentication parameters
	StaticTokens        []string
	PermissionTTLSecond int64

	// Write-behind batcher parameters
	BatchSize           int
	BatchIntervalSecond int64

	// Background task parameters
	SweepIntervalSecond int64
	PruneChunkSize      int
	ReapIntervalSecond  int64

	// Logging configuration
	LogLevel string
}

// ToEngineConfig converts the ServerConfig to the engine's configuration.
func (c *ServerConfig) ToEngineConfig() engine.Config {
	return engine.Config{
		DSN:            c.DatabaseDSN,
		StaticTokens:   c.StaticTokens,
		PermissionTTL:  time.Duration(c.PermissionTTLSecond) * time.Second,
		BatchSize:      c.BatchSize,
		BatchInterval:  time.Duration(c.BatchIntervalSecond) * time.Second,
		SweepInterval:  time.Duration(c.SweepIntervalSecond) * time.Second,
		PruneChunkSize: c.PruneChunkSize,
		ReapInterval:   time.Duration(c.ReapIntervalSecond) * time.Second,
	}
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Name", c.Name)
	addField("Endpoint", c.Endpoint)

	// Storage
	addSection("Storage")
	if c.DatabaseDSN == "" {
		addField("Durable Tier", "disabled (memory only)")
	} else {
		addField("Database DSN", c.DatabaseDSN)
		addField("Batch Size", strconv.Itoa(c.BatchSize))
		addField("Batch Interval", fmt.Sprintf("%d sec", c.BatchIntervalSecond))
		addField("Reap Interval", fmt.Sprintf("%d sec", c.ReapIntervalSecond))
	}

	// Authentication
	addSection("Authentication")
	addField("Static Tokens", strconv.Itoa(len(c.StaticTokens)))
	addField("Permission TTL", fmt.Sprintf("%d sec", c.PermissionTTLSecond))

	// Background tasks
	addSection("Background Tasks")
	addField("Sweep Interval", fmt.Sprintf("%d sec", c.SweepIntervalSecond))
	addField("Prune Chunk Size", strconv.Itoa(c.PruneChunkSize))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints     []string
	TimeoutSecond int
	RetryCount    int
	Token         string
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Token", strings.Repeat("*", len(c.Token)))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
