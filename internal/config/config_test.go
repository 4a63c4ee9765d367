package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ConfigYAML(t *testing.T) {
	path := filepath.Join("..", "..", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.Host == "" {
		t.Fatalf("expected database.host to be set")
	}
	if cfg.RabbitMQ.Port == 0 {
		t.Fatalf("expected rabbitmq.port to be set")
	}
	if cfg.HTTP.Port == 0 {
		t.Fatalf("expected http.port to be set or defaulted")
	}
}

func TestLoad_DefaultHTTPPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("database:\n  host: localhost\n  port: 5432\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTP.Port != 3000 {
		t.Fatalf("http.port = %d, want default 3000", cfg.HTTP.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestURLs(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Host: "db", Port: 5432, User: "pos", Password: "secret", Database: "pos"},
		RabbitMQ: RabbitMQConfig{Host: "mq", Port: 5672, User: "guest", Password: "guest"},
	}
	if got, want := cfg.DatabaseURL(), "postgres://pos:secret@db:5432/pos?sslmode=disable"; got != want {
		t.Errorf("DatabaseURL() = %q, want %q", got, want)
	}
	if got, want := cfg.RabbitMQURL(), "amqp://guest:guest@mq:5672/"; got != want {
		t.Errorf("RabbitMQURL() = %q, want %q", got, want)
	}
}
