package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "auth:\n  secret: s3cret\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.Store.Driver)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Server.Port)
	}
}

func TestLoadPostgresURLImpliesDriver(t *testing.T) {
	cfg, err := Load(writeConfig(t, "postgres:\n  url: postgres://x\nauth:\n  secret: s\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.Store.Driver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown driver", "store:\n  driver: mongo\nauth:\n  secret: s\n", "unknown store driver"},
		{"postgres without url", "store:\n  driver: postgres\nauth:\n  secret: s\n", "requires postgres.url"},
		{"admin without password", "auth:\n  secret: s\n  admin_username: root\n", "admin_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on garbage, got %v", got)
	}
}

func TestLoadQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	body := `questions:
  - type: multiple
    difficulty: easy
    category: Science
    question: What is H2O?
    correct_answer: Water
    incorrect_answers: [Salt, Air, Fire]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	qs, err := LoadQuestions(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(qs) != 1 || qs[0].CorrectAnswer != "Water" || len(qs[0].IncorrectAnswers) != 3 {
		t.Fatalf("unexpected questions %+v", qs)
	}
}
