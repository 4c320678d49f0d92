package config

import (
	"os"
	"strconv"
)

// applyEnvOverrides layers environment variables over the loaded config.
// Environment always wins so deployments can keep secrets out of YAML.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GRIDSCOUT_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("GRIDSCOUT_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv("TBA_AUTH_KEY"); v != "" {
		c.TBA.AuthKey = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && c.Sheets.CredentialsFile == "" {
		c.Sheets.CredentialsFile = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	if v := os.Getenv("GRIDSCOUT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("GRIDSCOUT_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("GRIDSCOUT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
