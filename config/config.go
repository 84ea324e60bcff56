// Package config loads service configuration from a YAML file with
// environment overrides for secrets and deploy-time settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Agent   AgentConfig   `yaml:"agent"`
	Memory  MemoryConfig  `yaml:"memory"`
	Persona PersonaConfig `yaml:"persona"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type GeminiConfig struct {
	APIKey     string `yaml:"apiKey"`
	ChatModel  string `yaml:"chatModel"`
	ImageModel string `yaml:"imageModel"`
}

type AgentConfig struct {
	MaxPlanSteps  int      `yaml:"maxPlanSteps"`
	ParallelSteps bool     `yaml:"parallelSteps"`
	StepTimeout   Duration `yaml:"stepTimeout"`
	ModelTimeout  Duration `yaml:"modelTimeout"`
}

// Duration accepts YAML duration strings like "30s" or "2m".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

type MemoryConfig struct {
	Path string `yaml:"path"`
}

type PersonaConfig struct {
	File string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Gemini: GeminiConfig{
			ChatModel:  "gemini-2.0-flash",
			ImageModel: "gemini-2.0-flash-exp-image-generation",
		},
		Agent: AgentConfig{
			MaxPlanSteps: 6,
			StepTimeout:  Duration(30 * time.Second),
			ModelTimeout: Duration(45 * time.Second),
		},
		Memory: MemoryConfig{Path: "agent-memory.db"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; a present but
// unreadable or malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("AGENT_LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("AGENT_MEMORY_PATH"); v != "" {
		cfg.Memory.Path = v
	}

	if cfg.Gemini.APIKey == "" {
		return Config{}, fmt.Errorf("gemini api key not set (config gemini.apiKey or GEMINI_API_KEY)")
	}
	if cfg.Agent.MaxPlanSteps <= 0 {
		cfg.Agent.MaxPlanSteps = 6
	}
	if cfg.Agent.StepTimeout <= 0 {
		cfg.Agent.StepTimeout = Duration(30 * time.Second)
	}
	if cfg.Agent.ModelTimeout <= 0 {
		cfg.Agent.ModelTimeout = Duration(45 * time.Second)
	}
	return cfg, nil
}
