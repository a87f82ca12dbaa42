// Package config loads the toolgate configuration from YAML with
// environment overrides layered on top.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "toolgate.yaml"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tools     ToolsConfig     `yaml:"tools"`
	Resources ResourcesConfig `yaml:"resources"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	LLM       LLMConfig       `yaml:"llm"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr                   string `yaml:"addr"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

type ToolsConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type ResourcesConfig struct {
	Root       string   `yaml:"root"`
	Include    []string `yaml:"include"`
	Ignore     []string `yaml:"ignore"`
	MaxEntries int      `yaml:"max_entries"`
	Watch      bool     `yaml:"watch"`
}

type BridgeConfig struct {
	Enabled               bool   `yaml:"enabled"`
	Backend               string `yaml:"backend"`
	MCPURL                string `yaml:"mcp_url"`
	ServerCommand         string `yaml:"server_command"`
	SocketPath            string `yaml:"socket_path"`
	MaxRounds             int    `yaml:"max_rounds"`
	SystemPrompt          string `yaml:"system_prompt"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                   ":8080",
			ReadTimeoutSeconds:     30,
			WriteTimeoutSeconds:    120,
			ShutdownTimeoutSeconds: 10,
		},
		Tools: ToolsConfig{
			TimeoutSeconds: 60,
		},
		Resources: ResourcesConfig{
			Root:    ".",
			Include: []string{"**/*"},
			Ignore: []string{
				"**/.git/**",
				"**/node_modules/**",
				"**/vendor/**",
				"**/__pycache__/**",
				"**/dist/**",
				"**/build/**",
			},
			MaxEntries: 500,
			Watch:      true,
		},
		Bridge: BridgeConfig{
			Enabled:               false,
			Backend:               "local",
			MCPURL:                "http://localhost:8080/mcp",
			MaxRounds:             8,
			SystemPrompt:          "You are a cautious assistant that prefers using available tools.",
			RequestTimeoutSeconds: 120,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
			MaxRetries:     2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file at path, falling back to DefaultConfigFile in
// the working directory. A missing default file is fine; a missing explicit
// file is an error. A .env file is applied first so environment overrides
// can come from it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults only.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TOOLGATE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TOOLGATE_RESOURCES_ROOT"); v != "" {
		c.Resources.Root = v
	}
	if v := os.Getenv("TOOLGATE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MCP_URL"); v != "" {
		c.Bridge.MCPURL = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}

	// Key lookup tracks the active provider.
	switch c.LLM.Provider {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	default:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	}
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config error: server.addr cannot be empty")
	}
	if c.Tools.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: tools.timeout_seconds must be positive")
	}
	if c.Resources.MaxEntries <= 0 {
		return fmt.Errorf("config error: resources.max_entries must be positive")
	}
	if c.Bridge.MaxRounds < 1 {
		return fmt.Errorf("config error: bridge.max_rounds must be at least 1")
	}
	switch c.Bridge.Backend {
	case "local", "http", "stdio", "socket":
	default:
		return fmt.Errorf("config error: unknown bridge.backend %q", c.Bridge.Backend)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("config error: unknown llm.provider %q", c.LLM.Provider)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config error: log.format must be text or json")
	}
	return nil
}

// String renders a redacted summary safe for logs.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "server.addr=%s", c.Server.Addr)
	fmt.Fprintf(&b, " resources.root=%s", c.Resources.Root)
	fmt.Fprintf(&b, " bridge.enabled=%t bridge.backend=%s", c.Bridge.Enabled, c.Bridge.Backend)
	fmt.Fprintf(&b, " llm.provider=%s llm.model=%s", c.LLM.Provider, c.LLM.Model)
	fmt.Fprintf(&b, " llm.api_key=%s", redactKey(c.LLM.APIKey))
	return b.String()
}

func redactKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "..."
	}
	return key[:8] + "..."
}
