package config

import (
	"os"
	"testing"
)

const sampleConfig = `
llm:
  provider: openai
  base_url: https://api.example.com
  api_key: dummy
  model: gpt-4o
server:
  host: 0.0.0.0
  port: "8000"
log:
  level: debug
negotiation:
  min_price: 15000
  max_price: 27000
  offers_per_turn: 3
`

// TestLoad verifies that Load unmarshals all sections and keeps defaults for
// keys the file omits.
func TestLoad(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(sampleConfig); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()

	t.Setenv("CONFIG_PATH", tmp.Name())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("unexpected model: %s", cfg.LLM.Model)
	}
	if cfg.Server.Port != "8000" {
		t.Fatalf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Log.Level)
	}
	if cfg.Negotiation.MinPrice != 15000 || cfg.Negotiation.MaxPrice != 27000 {
		t.Fatalf("unexpected price band: %+v", cfg.Negotiation)
	}
	if cfg.Negotiation.OffersPerTurn != 3 {
		t.Fatalf("unexpected offers per turn: %d", cfg.Negotiation.OffersPerTurn)
	}
	if cfg.Negotiation.DBPath != "negotiations.db" {
		t.Fatalf("db_path default not applied: %s", cfg.Negotiation.DBPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Negotiation.MinPrice != 18000 || cfg.Negotiation.MaxPrice != 30000 {
		t.Fatalf("unexpected default band: %+v", cfg.Negotiation)
	}
	if cfg.Negotiation.OffersPerTurn != 4 {
		t.Fatalf("unexpected default offers per turn: %d", cfg.Negotiation.OffersPerTurn)
	}
}
