package config

import (
	"testing"
	"time"

	"github.com/ggoodman/authgate-go/apierror"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.APIKeyHeader != "x-api-key" {
		t.Errorf("APIKeyHeader = %q", cfg.APIKeyHeader)
	}
	if cfg.KeySetTTL != 2*time.Hour {
		t.Errorf("KeySetTTL = %s", cfg.KeySetTTL)
	}
	v, err := cfg.Verbosity()
	if err != nil {
		t.Fatalf("verbosity: %v", err)
	}
	if v != apierror.VerbosityMessage {
		t.Errorf("verbosity = %v", v)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ERROR_VERBOSITY", "full")
	t.Setenv("API_KEYS", "k1;k2")
	t.Setenv("BASIC_USERS", "alice:pw;bob")
	t.Setenv("JWT_AUDIENCES", "https://api.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[0] != "k1" {
		t.Errorf("APIKeys = %v", cfg.APIKeys)
	}
	users := cfg.BasicUserMap()
	if users["alice"] != "pw" {
		t.Errorf("alice password = %q", users["alice"])
	}
	if pass, ok := users["bob"]; !ok || pass != "" {
		t.Errorf("bob entry = %q, %v", pass, ok)
	}
	v, _ := cfg.Verbosity()
	if v != apierror.VerbosityFull {
		t.Errorf("verbosity = %v", v)
	}
}

func TestLoadRejectsUnknownVerbosity(t *testing.T) {
	t.Setenv("ERROR_VERBOSITY", "chatty")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown verbosity")
	}
}
