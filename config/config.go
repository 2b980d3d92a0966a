// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/minaorangina/fantan/advisor"
	"github.com/minaorangina/fantan/deck"
	"github.com/minaorangina/fantan/engine"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	AdvisorOpenAI = "openai"
	AdvisorScript = "script"
	AdvisorFirst  = "first"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Suits          int           `env:"FANTAN_SUITS,default=4"`
	Model          string        `env:"FANTAN_MODEL"`
	Models         string        `env:"FANTAN_MODELS"`
	ThinkDelay     time.Duration `env:"FANTAN_THINK_DELAY,default=1s"`
	AdvisorTimeout time.Duration `env:"FANTAN_ADVISOR_TIMEOUT,default=30s"`
	Advisor        string        `env:"FANTAN_ADVISOR"`
	Script         string        `env:"FANTAN_SCRIPT"`
	OpenAIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string        `env:"OPENAI_BASE_URL"`
	Port           string        `env:"PORT,default=8000"`
	LogLevel       string        `env:"FANTAN_LOG_LEVEL,default=info"`
	AllowedOrigins []string      `env:"FANTAN_ALLOWED_ORIGINS"`
	PlayerName     string        `env:"FANTAN_PLAYER_NAME,default=Player"`
}

// Load decodes the environment into a Config and validates it
func Load() (Config, error) {
	var cfg Config
	err := envdecode.Decode(&cfg)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Advisor == "" {
		// no key, no model: play the first legal card
		cfg.Advisor = AdvisorFirst
		if cfg.OpenAIKey != "" {
			cfg.Advisor = AdvisorOpenAI
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Suits < 1 || c.Suits > len(deck.CanonicalOrder) {
		return fmt.Errorf("%w: FANTAN_SUITS: %v", ErrInvalidConfig, deck.ErrSuitCount)
	}
	if c.ThinkDelay < 0 || c.AdvisorTimeout < 0 {
		return fmt.Errorf("%w: durations cannot be negative", ErrInvalidConfig)
	}

	switch c.Advisor {
	case AdvisorOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for the %s advisor", ErrInvalidConfig, AdvisorOpenAI)
		}
	case AdvisorScript:
		if c.Script == "" {
			return fmt.Errorf("%w: FANTAN_SCRIPT is required for the %s advisor", ErrInvalidConfig, AdvisorScript)
		}
	case AdvisorFirst:
	default:
		return fmt.Errorf("%w: unknown advisor %q", ErrInvalidConfig, c.Advisor)
	}

	models, err := c.ModelList()
	if err != nil {
		return fmt.Errorf("%w: FANTAN_MODELS: %v", ErrInvalidConfig, err)
	}
	if c.Model != "" {
		if _, ok := advisor.FindModel(models, c.Model); !ok {
			return fmt.Errorf("%w: FANTAN_MODEL %q is not in the model list", ErrInvalidConfig, c.Model)
		}
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: FANTAN_LOG_LEVEL: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ModelList returns the configured models with the default model first
func (c Config) ModelList() ([]advisor.Model, error) {
	models, err := advisor.ParseModels(c.Models)
	if err != nil {
		return nil, err
	}
	for i, m := range models {
		if m.ID == c.Model && i > 0 {
			ordered := append([]advisor.Model{m}, models[:i]...)
			return append(ordered, models[i+1:]...), nil
		}
	}
	return models, nil
}

func (c Config) Engine() engine.Config {
	return engine.Config{
		SuitCount:      c.Suits,
		ThinkDelay:     c.ThinkDelay,
		AdvisorTimeout: c.AdvisorTimeout,
	}
}

// Addr is the address the web server listens on
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// NewLogger builds a production logger at the configured level
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: FANTAN_LOG_LEVEL: %v", ErrInvalidConfig, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}

// NewAdvisor builds the move advisor the configuration names
func (c Config) NewAdvisor(logger *zap.Logger) (advisor.Advisor, error) {
	switch c.Advisor {
	case AdvisorOpenAI:
		return advisor.NewOpenAI(advisor.OpenAIOpts{
			APIKey:  c.OpenAIKey,
			BaseURL: c.OpenAIBaseURL,
			Timeout: c.AdvisorTimeout,
			Logger:  logger,
		}), nil

	case AdvisorScript:
		source, err := os.ReadFile(c.Script)
		if err != nil {
			return nil, fmt.Errorf("reading strategy script: %w", err)
		}
		script, err := advisor.NewScript(c.Script, string(source))
		if err != nil {
			return nil, err
		}
		return script, nil

	case AdvisorFirst:
		return advisor.FirstLegal{}, nil
	}
	return nil, fmt.Errorf("%w: unknown advisor %q", ErrInvalidConfig, c.Advisor)
}
