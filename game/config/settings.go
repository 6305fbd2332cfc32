package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/wricardo/nim-lobby/game/liveness"
	"github.com/wricardo/nim-lobby/game/lobby"
	"github.com/wricardo/nim-lobby/game/nim"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Settings is the game tuning read from the environment
type Settings struct {
	HeartbeatInterval time.Duration `env:"NIM_HEARTBEAT_INTERVAL" envDefault:"10s"`
	HeartbeatTimeout  time.Duration `env:"NIM_HEARTBEAT_TIMEOUT" envDefault:"5s"`
	AIDelay           time.Duration `env:"NIM_AI_DELAY" envDefault:"1500ms"`

	EasyMin int `env:"NIM_EASY_MIN" envDefault:"2"`
	EasyMax int `env:"NIM_EASY_MAX" envDefault:"20"`
	HardMin int `env:"NIM_HARD_MIN" envDefault:"2"`
	HardMax int `env:"NIM_HARD_MAX" envDefault:"100"`

	MaxNameLength int `env:"NIM_MAX_NAME_LENGTH" envDefault:"24"`
	MaxChatLength int `env:"NIM_MAX_CHAT_LENGTH" envDefault:"500"`

	StaticDir string `env:"NIM_STATIC_DIR" envDefault:"./static"`
	RulesFile string `env:"NIM_RULES_FILE"`
}

// Load parses the environment, applies the rules file if one is named and
// validates the result
func Load() (*Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if s.RulesFile != "" {
		if err := s.applyRulesFile(s.RulesFile); err != nil {
			return nil, err
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Default returns the settings used when nothing is configured. The env tag
// defaults must agree with it.
func Default() *Settings {
	rules := nim.DefaultRules()
	return &Settings{
		HeartbeatInterval: liveness.DefaultInterval,
		HeartbeatTimeout:  liveness.DefaultTimeout,
		AIDelay:           lobby.DefaultAIDelay,
		EasyMin:           rules.Easy.Min,
		EasyMax:           rules.Easy.Max,
		HardMin:           rules.Hard.Min,
		HardMax:           rules.Hard.Max,
		MaxNameLength:     lobby.DefaultMaxNameLength,
		MaxChatLength:     lobby.DefaultMaxChatLength,
		StaticDir:         "./static",
	}
}

// Rules returns the pool ranges as game rules
func (s *Settings) Rules() nim.Rules {
	return nim.Rules{
		Easy: nim.Range{Min: s.EasyMin, Max: s.EasyMax},
		Hard: nim.Range{Min: s.HardMin, Max: s.HardMax},
	}
}

// Validate checks the settings for consistency
func (s *Settings) Validate() error {
	if s.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: heartbeat interval must be positive", ErrInvalidConfig)
	}
	if s.HeartbeatTimeout <= 0 || s.HeartbeatTimeout >= s.HeartbeatInterval {
		return fmt.Errorf("%w: heartbeat timeout (%s) must be positive and shorter than the interval (%s)",
			ErrInvalidConfig, s.HeartbeatTimeout, s.HeartbeatInterval)
	}
	if s.AIDelay < 0 {
		return fmt.Errorf("%w: AI delay must not be negative", ErrInvalidConfig)
	}
	if s.MaxNameLength <= 0 || s.MaxChatLength <= 0 {
		return fmt.Errorf("%w: length limits must be positive", ErrInvalidConfig)
	}
	if err := s.Rules().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (s *Settings) applyRulesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	// Missing keys keep their current values; unknown keys are rejected.
	rules := s.Rules()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rules); err != nil {
		return fmt.Errorf("%w: rules file %s: %v", ErrInvalidConfig, path, err)
	}

	s.EasyMin, s.EasyMax = rules.Easy.Min, rules.Easy.Max
	s.HardMin, s.HardMax = rules.Hard.Min, rules.Hard.Max
	return nil
}
