// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port      int
	AppURL    string // public base URL, used in OAuth redirects and the widget embed
	StaticDir string

	Store  string // "sqlite" or "memory"
	DBPath string // sqlite only

	JWTSecret string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	SeedDemo bool // seed the demo account and sample data on startup
}

// Load reads the environment. Call godotenv.Load first if a .env file
// should be honored; Load itself only looks at the process environment.
func Load() *Config {
	port := 8080
	if p, err := strconv.Atoi(getEnv("PORT", "")); err == nil && p > 0 {
		port = p
	}

	appURL := getEnv("APP_URL", fmt.Sprintf("http://localhost:%d", port))

	return &Config{
		Port:      port,
		AppURL:    appURL,
		StaticDir: getEnv("STATIC_DIR", "web/static"),

		Store:  getEnv("STORE", "sqlite"),
		DBPath: getEnv("DB_PATH", "data/feedbackpulse.db"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", appURL+"/auth/github/callback"),

		SeedDemo: getEnv("SEED_DEMO", "") == "1",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
