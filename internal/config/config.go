package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "strconv"  // strconv validates numeric values
    "time"     // time parses the shutdown budget

    "github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds the runtime configuration of the HTTP server.  Every field
// has a default so the service starts with an empty environment.
type Config struct {
    Env             string        // application environment (e.g. "dev", "prod")
    Port            string        // HTTP port to listen on
    ShutdownTimeout time.Duration // how long in-flight requests may take on shutdown
}

// IsProd reports whether the service runs in production mode.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// Load reads a .env file if one exists, then builds a Config from the
// environment.  An unparsable port is fatal.
func Load() Config {
    _ = godotenv.Load() // a missing .env file is not an error
    cfg := Config{
        Env:             envStr("APP_ENV", "dev"),
        Port:            envStr("APP_PORT", "8080"),
        ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
    }
    if n, err := strconv.Atoi(cfg.Port); err != nil || n <= 0 || n > 65535 {
        log.Fatalf("invalid APP_PORT: %q", cfg.Port)
    }
    return cfg
}
