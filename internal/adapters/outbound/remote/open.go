package remote

import (
	"fmt"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/config"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
)

// Open builds the store selected by STORE_BACKEND.
func Open(cfg *config.Config) (replica.Store, error) {
	switch cfg.StoreBackend {
	case "sqlite", "":
		return OpenSQLite(cfg.SQLitePath)
	case "redis":
		return NewRedis(RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
