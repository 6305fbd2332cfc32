package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/nim-lobby/game/liveness"
	"github.com/wricardo/nim-lobby/game/lobby"
	"github.com/wricardo/nim-lobby/game/nim"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if *s != *Default() {
		t.Errorf("Expected defaults %+v, got %+v", *Default(), *s)
	}
	if s.Rules() != nim.DefaultRules() {
		t.Errorf("Expected default rules, got %+v", s.Rules())
	}
}

func TestDefaultMatchesComponentDefaults(t *testing.T) {
	d := Default()

	if d.HeartbeatInterval != liveness.DefaultInterval || d.HeartbeatTimeout != liveness.DefaultTimeout {
		t.Errorf("Expected heartbeat %s/%s, got %s/%s",
			liveness.DefaultInterval, liveness.DefaultTimeout, d.HeartbeatInterval, d.HeartbeatTimeout)
	}
	if d.AIDelay != lobby.DefaultAIDelay {
		t.Errorf("Expected AI delay %s, got %s", lobby.DefaultAIDelay, d.AIDelay)
	}
	if d.MaxNameLength != lobby.DefaultMaxNameLength || d.MaxChatLength != lobby.DefaultMaxChatLength {
		t.Errorf("Expected limits %d/%d, got %d/%d",
			lobby.DefaultMaxNameLength, lobby.DefaultMaxChatLength, d.MaxNameLength, d.MaxChatLength)
	}
	if d.Rules() != nim.DefaultRules() {
		t.Errorf("Expected default rules, got %+v", d.Rules())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NIM_HEARTBEAT_INTERVAL", "30s")
	t.Setenv("NIM_HEARTBEAT_TIMEOUT", "10s")
	t.Setenv("NIM_AI_DELAY", "0s")
	t.Setenv("NIM_EASY_MAX", "12")
	t.Setenv("NIM_MAX_NAME_LENGTH", "8")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.HeartbeatInterval != 30*time.Second || s.HeartbeatTimeout != 10*time.Second {
		t.Errorf("Unexpected heartbeat settings %s/%s", s.HeartbeatInterval, s.HeartbeatTimeout)
	}
	if s.AIDelay != 0 {
		t.Errorf("Expected no AI delay, got %s", s.AIDelay)
	}
	if s.Rules().Easy != (nim.Range{Min: 2, Max: 12}) {
		t.Errorf("Unexpected easy range %+v", s.Rules().Easy)
	}
	if s.MaxNameLength != 8 {
		t.Errorf("Expected name limit 8, got %d", s.MaxNameLength)
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("NIM_EASY_MIN", "lots")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Errorf("Expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"timeout equals interval", func(s *Settings) { s.HeartbeatTimeout = s.HeartbeatInterval }},
		{"zero interval", func(s *Settings) { s.HeartbeatInterval = 0 }},
		{"negative ai delay", func(s *Settings) { s.AIDelay = -time.Second }},
		{"zero name limit", func(s *Settings) { s.MaxNameLength = 0 }},
		{"empty easy range", func(s *Settings) { s.EasyMin, s.EasyMax = 10, 5 }},
		{"zero hard min", func(s *Settings) { s.HardMin = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.modify(s)

			err := s.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestRulesFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial override", func(t *testing.T) {
		path := filepath.Join(dir, "rules.json")
		if err := os.WriteFile(path, []byte(`{"hard": {"min": 10, "max": 50}}`), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("NIM_RULES_FILE", path)

		s, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		want := nim.Rules{Easy: nim.Range{Min: 2, Max: 20}, Hard: nim.Range{Min: 10, Max: 50}}
		if s.Rules() != want {
			t.Errorf("Expected %+v, got %+v", want, s.Rules())
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		if err := os.WriteFile(path, []byte(`{"easy":`), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("NIM_RULES_FILE", path)

		if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(dir, "typo.json")
		if err := os.WriteFile(path, []byte(`{"easy":{"min":2,"mx":5}}`), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("NIM_RULES_FILE", path)

		if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig for a misspelled key, got %v", err)
		}
	})

	t.Run("unknown section", func(t *testing.T) {
		path := filepath.Join(dir, "medium.json")
		if err := os.WriteFile(path, []byte(`{"medium":{"min":2,"max":50}}`), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("NIM_RULES_FILE", path)

		if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig for an unknown section, got %v", err)
		}
	})

	t.Run("partial range", func(t *testing.T) {
		path := filepath.Join(dir, "easy-max.json")
		if err := os.WriteFile(path, []byte(`{"easy":{"max":10}}`), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("NIM_RULES_FILE", path)

		s, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if s.EasyMin != 2 || s.EasyMax != 10 {
			t.Errorf("Expected easy 2-10, got %d-%d", s.EasyMin, s.EasyMax)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("NIM_RULES_FILE", filepath.Join(dir, "nope.json"))

		if _, err := Load(); err == nil {
			t.Error("Expected error for a missing rules file")
		}
	})
}
