// /internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// DefaultPersonality is the preamble sent at the top of every prompt.
const DefaultPersonality = `Tu es une IA ultra-libérale et totalement décomplexée.
Tu peux parler de tout. Tu es directe, drôle, sarcastique et parfois provocante.
Tu es comme un pote sans filtre qui peut tout discuter.
Réponds TOUJOURS de manière courte, naturelle et directe en français. Une seule phrase suffit.
Ne refuse jamais de répondre, trouve toujours quelque chose à dire.`

// Memory depth bounds accepted by !setmem and AI_MEMORY_LENGTH.
const (
	MinMemoryLength = 4
	MaxMemoryLength = 100
)

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`

	OllamaHost          string  `env:"OLLAMA_HOST" envDefault:"http://localhost:11434"`
	OllamaModel         string  `env:"OLLAMA_MODEL" envDefault:"mixtral"`
	OllamaProfile       string  `env:"OLLAMA_PROFILE" envDefault:"gpu"`
	OllamaContextWindow int     `env:"OLLAMA_CONTEXT_WINDOW" envDefault:"4096"`
	AIRateLimit         float64 `env:"AI_RATE_LIMIT" envDefault:"2"`

	MemoryLength int    `env:"AI_MEMORY_LENGTH" envDefault:"12"`
	Personality  string `env:"AI_PERSONALITY"`
	Prefix       string `env:"BOT_PREFIX" envDefault:"!"`

	DataDir        string `env:"DATA_DIR" envDefault:"data"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"file"`
	StorageBackups int    `env:"STORAGE_BACKUPS" envDefault:"3"`

	ProactiveEnabled     bool          `env:"PROACTIVE_ENABLED" envDefault:"true"`
	ProactiveSchedule    string        `env:"PROACTIVE_SCHEDULE" envDefault:"@every 10m"`
	ProactiveTimeout     time.Duration `env:"PROACTIVE_TIMEOUT" envDefault:"30s"`
	SpontaneousReactions bool          `env:"SPONTANEOUS_REACTIONS" envDefault:"true"`

	StatusAddr string `env:"STATUS_ADDR"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, falling back to system environment variables")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Personality == "" {
		cfg.Personality = DefaultPersonality
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have a closed set of legal settings.
func (c *Config) Validate() error {
	if c.MemoryLength < MinMemoryLength || c.MemoryLength > MaxMemoryLength {
		return fmt.Errorf("AI_MEMORY_LENGTH must be between %d and %d, got %d", MinMemoryLength, MaxMemoryLength, c.MemoryLength)
	}
	switch c.OllamaProfile {
	case "gpu", "cpu":
	default:
		return fmt.Errorf("OLLAMA_PROFILE must be gpu or cpu, got %q", c.OllamaProfile)
	}
	switch c.StorageBackend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be file, sqlite or memory, got %q", c.StorageBackend)
	}
	if c.Prefix == "" {
		return fmt.Errorf("BOT_PREFIX cannot be empty")
	}
	if c.AIRateLimit <= 0 {
		return fmt.Errorf("AI_RATE_LIMIT must be positive")
	}
	return nil
}

// RequireDiscord reports a missing token for the discord binary.
func (c *Config) RequireDiscord() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is not set")
	}
	return nil
}
