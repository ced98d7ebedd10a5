package collab

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("collab", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("http addr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.HealthAddr != ":8081" {
		t.Fatalf("health addr = %q, want :8081", cfg.HealthAddr)
	}
	if cfg.DBPath != "data/collab.db" {
		t.Fatalf("db path = %q, want data/collab.db", cfg.DBPath)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("CROSSPROMO_COLLAB_RECEIVED_ROUTE", "/inbox")
	fs := flag.NewFlagSet("collab", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "127.0.0.1:9000", "-db-path", "/tmp/c.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Fatalf("http addr = %q, want override", cfg.HTTPAddr)
	}
	if cfg.DBPath != "/tmp/c.db" {
		t.Fatalf("db path = %q, want override", cfg.DBPath)
	}
	routes := cfg.serverConfig().Routes
	if routes.Received != "/inbox" {
		t.Fatalf("received route = %q, want /inbox", routes.Received)
	}
	if routes.Login != "/login" {
		t.Fatalf("login route = %q, want /login", routes.Login)
	}
}

func TestParseConfigRejectsUnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("collab", flag.ContinueOnError)
	fs.SetOutput(discard{})
	if _, err := ParseConfig(fs, []string{"-nope"}); err == nil {
		t.Fatal("expected unknown flag error")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
