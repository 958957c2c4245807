package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Retrieval.TopK != 3 {
		t.Errorf("topK = %d, want 3", cfg.Retrieval.TopK)
	}
	if cfg.Assembly.MaxContextChars != 4000 {
		t.Errorf("maxContextChars = %d, want 4000", cfg.Assembly.MaxContextChars)
	}
	if cfg.LLM.Temperature != 0.1 {
		t.Errorf("temperature = %v, want 0.1", cfg.LLM.Temperature)
	}
	if cfg.Status.CacheTTL != 300 {
		t.Errorf("status cacheTTL = %d, want 300", cfg.Status.CacheTTL)
	}
}

func TestEnvOverridesReachEnvOnlyKeys(t *testing.T) {
	t.Setenv("CAIRA_LLM_APIKEY", "sk-test-123")
	t.Setenv("CAIRA_REDIS_PASSWORD", "hunter2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LLM.APIKey != "sk-test-123" {
		t.Errorf("llm.apiKey = %q, want env value", cfg.LLM.APIKey)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Errorf("redis.password = %q, want env value", cfg.Redis.Password)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("CAIRA_RETRIEVAL_TOPK", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Retrieval.TopK != 5 {
		t.Errorf("topK = %d, want env override 5", cfg.Retrieval.TopK)
	}
}
