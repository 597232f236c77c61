package config

import "os"

type Config struct {
	HTTPAddr        string
	PostgresDSN     string // empty means the in-memory ledger
	RedisAddr       string // empty disables the alert queue
	JWTSecret       string
	ArbiterName     string
	ArbiterEmail    string
	ArbiterPassword string
}

func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		JWTSecret:       getenv("JWT_SECRET", "supersecret"),
		ArbiterName:     getenv("ARBITER_NAME", "Marketplace Arbiter"),
		ArbiterEmail:    getenv("ARBITER_EMAIL", "arbiter@peermart.local"),
		ArbiterPassword: os.Getenv("ARBITER_PASSWORD"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
