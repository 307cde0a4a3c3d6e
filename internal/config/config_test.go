package config

import (
	"testing"
)

func TestGetEnvAsImageMap(t *testing.T) {
	defaults := map[string]string{"go": "skillpath/playground-go:latest"}

	t.Run("unset returns defaults", func(t *testing.T) {
		images := getEnvAsImageMap("PLAYGROUND_IMAGES_TEST", defaults)
		if images["go"] != defaults["go"] {
			t.Errorf("expected defaults, got %v", images)
		}
	})

	t.Run("parses pairs", func(t *testing.T) {
		t.Setenv("PLAYGROUND_IMAGES_TEST", "javascript=node:22, python=python:3.12")
		images := getEnvAsImageMap("PLAYGROUND_IMAGES_TEST", defaults)
		if images["javascript"] != "node:22" {
			t.Errorf("expected node:22, got %q", images["javascript"])
		}
		if images["python"] != "python:3.12" {
			t.Errorf("expected python:3.12, got %q", images["python"])
		}
		if _, ok := images["go"]; ok {
			t.Error("defaults should not leak into explicit mappings")
		}
	})

	t.Run("malformed pairs fall back to defaults", func(t *testing.T) {
		t.Setenv("PLAYGROUND_IMAGES_TEST", "not-a-pair,=,also-bad=")
		images := getEnvAsImageMap("PLAYGROUND_IMAGES_TEST", defaults)
		if images["go"] != defaults["go"] {
			t.Errorf("expected defaults, got %v", images)
		}
	})
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:     ServerConfig{Port: 8080},
		Database:   DatabaseConfig{DSN: "postgres://localhost/test"},
		Playground: PlaygroundConfig{Images: defaultImages()},
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("port 0 should be rejected")
	}
	cfg.Server.Port = 8080

	cfg.Database.DSN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty DSN should be rejected")
	}
	cfg.Database.DSN = "postgres://localhost/test"

	cfg.Playground.Images = nil
	if err := cfg.Validate(); err == nil {
		t.Error("empty image map should be rejected")
	}
}
