package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.PublicBaseURL != DefaultPublicBaseURL {
		t.Errorf("PublicBaseURL = %q, want %q", cfg.PublicBaseURL, DefaultPublicBaseURL)
	}
	if cfg.SignSecret == "" {
		t.Error("SignSecret empty, want a randomized secret")
	}
	if cfg.SignedURLTTL != DefaultSignedURLTTL || cfg.ChunkExpiry != DefaultChunkExpiry {
		t.Errorf("TTLs = %v/%v, want defaults", cfg.SignedURLTTL, cfg.ChunkExpiry)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("PUBLIC_BASE_URL", "https://share.example.com")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SIGN_SECRET", "env-secret")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9999" || cfg.PublicBaseURL != "https://share.example.com" {
		t.Errorf("addr/baseURL = %q/%q, want env values", cfg.ListenAddr, cfg.PublicBaseURL)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 3 {
		t.Errorf("redis = %q db %d, want env values", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.SignSecret != "env-secret" {
		t.Errorf("SignSecret = %q, want env-secret", cfg.SignSecret)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("SIGN_SECRET", "env-secret")

	cfg, err := Load(Options{ListenAddr: ":7777", SignSecret: "flag-secret"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7777" {
		t.Errorf("ListenAddr = %q, want the flag value", cfg.ListenAddr)
	}
	if cfg.SignSecret != "flag-secret" {
		t.Errorf("SignSecret = %q, want the flag value", cfg.SignSecret)
	}
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	if _, err := Load(Options{}); err == nil {
		t.Fatal("Load accepted a non-numeric REDIS_DB")
	}
}
