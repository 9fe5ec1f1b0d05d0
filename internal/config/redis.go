package config

import (
	"os"
	"strconv"
)

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ResultStream  string
	CommandStream string
}

// GetRedisConfig builds Redis settings from the loaded config file with
// environment variable overrides.
func GetRedisConfig() RedisConfig {
	cfg := Get()

	rc := RedisConfig{
		Addr:          cfg.Redis.Addr,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		ResultStream:  cfg.Redis.ResultStream,
		CommandStream: cfg.Redis.CommandStream,
	}

	if rc.Addr == "" {
		rc.Addr = "localhost:6379"
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rc.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		rc.Password = password
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsed, err := strconv.Atoi(dbStr); err == nil {
			rc.DB = parsed
		}
	}

	return rc
}
