// Package config handles configuration for the server component, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the notiboard server.
//
// Fields:
//   - Addr: bind address of the HTTP endpoint.
//   - SecretKey: HMAC secret for signing session JWTs (HS256). Do not use
//     the test default in production.
//   - SessionTTL: validity of an issued session token.
//   - ClientQueueSize: per-client event queue depth; events beyond it are
//     dropped for that client.
type Config struct {
	Addr            string
	SecretKey       string
	SessionTTL      time.Duration
	ClientQueueSize int
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.SecretKey = "secretKey"
	c.SessionTTL = 24 * time.Hour
	c.ClientQueueSize = 16
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
