package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Scorer HTTP API
	HTTPHost     string
	HTTPPort     int
	APIRateLimit int // requests per minute per client

	// Fanout websocket for viewers and replica scorers
	FanoutPort int
	FanoutAddr string // viewer side, e.g. "ws://host:8766/ws"

	// Remote store
	StoreBackend  string // "sqlite" or "redis"
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MergePolicy   string // "lww" or "versioned"
	PersistPacing time.Duration

	// Audit and archive
	AuditDBPath string
	ArchiveDir  string

	// Match setup inputs
	RosterPath  string
	FormatsPath string

	// Identity of this process when it scores from the command line.
	ScorerID string

	DiscordWebhookURL string

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPHost:     envStr("HTTP_HOST", "0.0.0.0"),
		HTTPPort:     envInt("HTTP_PORT", 8765),
		APIRateLimit: envInt("API_RATE_LIMIT", 600),

		FanoutPort: envInt("FANOUT_PORT", 8766),
		FanoutAddr: envStr("FANOUT_ADDR", "ws://localhost:8766/ws"),

		StoreBackend:  envStr("STORE_BACKEND", "sqlite"),
		SQLitePath:    envStr("SQLITE_PATH", "matches.db"),
		RedisAddr:     envStr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),
		MergePolicy:   envStr("MERGE_POLICY", "lww"),
		PersistPacing: time.Duration(envInt("PERSIST_PACING_MS", 0)) * time.Millisecond,

		AuditDBPath: envStr("AUDIT_DB_PATH", "audit.db"),
		ArchiveDir:  envStr("ARCHIVE_DIR", "archive"),

		RosterPath:  envStr("ROSTER_PATH", "roster.yaml"),
		FormatsPath: envStr("FORMATS_PATH", ""),

		ScorerID: envStr("SCORER_ID", ""),

		DiscordWebhookURL: envStr("DISCORD_WEBHOOK_URL", ""),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
