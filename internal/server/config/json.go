package config

import (
	"encoding/json"
	"os"

	"github.com/msavelyev/notiboard/internal/flagx"
	"github.com/msavelyev/notiboard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations can
// be given either as strings like "24h" or as integer nanoseconds.
type JsonConfig struct {
	Addr            string         `json:"addr"`
	SecretKey       string         `json:"secret_key"`
	SessionTTL      timex.Duration `json:"session_ttl"`
	ClientQueueSize int            `json:"client_queue_size"`
}

// parseJson overlays cfg with values from the JSON file named by -c/-config.
// Absent flag means no JSON is loaded. Read or unmarshal errors panic;
// intended usage is defaults -> parseJson -> parseFlags.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Addr != "" {
		cfg.Addr = jc.Addr
	}
	if jc.SecretKey != "" {
		cfg.SecretKey = jc.SecretKey
	}
	if jc.SessionTTL.Duration != 0 {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	if jc.ClientQueueSize != 0 {
		cfg.ClientQueueSize = jc.ClientQueueSize
	}
}
