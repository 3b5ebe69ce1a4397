package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultListenAddr    = ":8080"
	DefaultPublicBaseURL = "http://localhost:8080"

	// DefaultSignedURLTTL is how long a chunk retrieval URL stays valid.
	DefaultSignedURLTTL = 300 * time.Second

	// DefaultChunkExpiry is the delay between a session's final chunk and
	// the bulk delete of all its chunks.
	DefaultChunkExpiry = 5 * time.Minute

	// DefaultMaxChunkBytes bounds a single ingested chunk body.
	DefaultMaxChunkBytes = 50 << 20

	// DefaultStorageTTL is the safety TTL on stored chunk values, well
	// past the expiry sweep.
	DefaultStorageTTL = 24 * time.Hour
)

// Config holds the relay server configuration.
type Config struct {
	ListenAddr    string
	PublicBaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SignSecret keys the HMAC behind signed chunk URLs. Randomized at
	// startup when unset, which invalidates outstanding URLs on restart.
	SignSecret string

	SignedURLTTL  time.Duration
	ChunkExpiry   time.Duration
	MaxChunkBytes int64
	StorageTTL    time.Duration
}

// Options carries CLI flag overrides into Load.
type Options struct {
	ListenAddr    string
	PublicBaseURL string
	RedisAddr     string
	SignSecret    string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	addr := firstOf(opts.ListenAddr, os.Getenv("LISTEN_ADDR"), DefaultListenAddr)
	baseURL := firstOf(opts.PublicBaseURL, os.Getenv("PUBLIC_BASE_URL"), DefaultPublicBaseURL)
	redisAddr := firstOf(opts.RedisAddr, os.Getenv("REDIS_ADDR"), "")

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", raw, err)
		}
		redisDB = db
	}

	secret := firstOf(opts.SignSecret, os.Getenv("SIGN_SECRET"), "")
	if secret == "" {
		secret = randomSecret()
	}

	return &Config{
		ListenAddr:    addr,
		PublicBaseURL: baseURL,
		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		SignSecret:    secret,
		SignedURLTTL:  DefaultSignedURLTTL,
		ChunkExpiry:   DefaultChunkExpiry,
		MaxChunkBytes: DefaultMaxChunkBytes,
		StorageTTL:    DefaultStorageTTL,
	}, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("failed to generate sign secret: %v", err))
	}
	return hex.EncodeToString(buf)
}
