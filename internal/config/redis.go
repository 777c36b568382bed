package config

// RedisConfig holds configuration for the redis connection used by the
// order idempotency store
type RedisConfig struct {
	Addr     string
	Password string
}

// LoadRedisConfig loads redis configuration from environment variables
func LoadRedisConfig(getenv func(string) string) RedisConfig {
	addr := getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379" // Default to local redis
	}

	return RedisConfig{
		Addr:     addr,
		Password: getenv("REDIS_PASSWORD"),
	}
}
