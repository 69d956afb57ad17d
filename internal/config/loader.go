package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so secrets can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Auth.JWTSecret = expandEnvVars(cfg.Auth.JWTSecret)
	cfg.Auth.AdminSecret = expandEnvVars(cfg.Auth.AdminSecret)
	cfg.Chat.APIKey = expandEnvVars(cfg.Chat.APIKey)
	if cfg.Notify.IRC != nil {
		cfg.Notify.IRC.Password = expandEnvVars(cfg.Notify.IRC.Password)
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	expandSensitiveFields(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = d.Server.Port
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = d.Server.Bind
	}
	if cfg.Auth.TokenTTLHours == 0 {
		cfg.Auth.TokenTTLHours = d.Auth.TokenTTLHours
	}
	if cfg.Chat.Provider == "" {
		cfg.Chat.Provider = d.Chat.Provider
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = d.Chat.Model
	}
	if cfg.Chat.ResponderTimeoutSeconds == 0 {
		cfg.Chat.ResponderTimeoutSeconds = d.Chat.ResponderTimeoutSeconds
	}
	if cfg.Chat.HistoryLimit == 0 {
		cfg.Chat.HistoryLimit = d.Chat.HistoryLimit
	}
	if cfg.Chat.TranscriptLimit == 0 {
		cfg.Chat.TranscriptLimit = d.Chat.TranscriptLimit
	}
	if cfg.Chat.DirectoryLimit == 0 {
		cfg.Chat.DirectoryLimit = d.Chat.DirectoryLimit
	}
	if cfg.Chat.FallbackReply == "" {
		cfg.Chat.FallbackReply = d.Chat.FallbackReply
	}
	p := &cfg.Chat.Persona
	if p.BusinessName == "" {
		p.BusinessName = d.Chat.Persona.BusinessName
	}
	if p.Language == "" {
		p.Language = d.Chat.Persona.Language
	}
	if p.Tone == "" {
		p.Tone = d.Chat.Persona.Tone
	}
	if p.MaxSentences == 0 {
		p.MaxSentences = d.Chat.Persona.MaxSentences
	}
	if len(p.Prices) == 0 {
		p.Prices = d.Chat.Persona.Prices
	}
	for i := range p.Prices {
		if p.Prices[i].Currency == "" {
			p.Prices[i].Currency = "AZN"
		}
	}
	if cfg.Notify.IRC != nil && cfg.Notify.IRC.Port == 0 {
		if cfg.Notify.IRC.UseTLS {
			cfg.Notify.IRC.Port = 6697
		} else {
			cfg.Notify.IRC.Port = 6667
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
}

// applyEnvOverrides reads TECHTRIBE_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TECHTRIBE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TECHTRIBE_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("TECHTRIBE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TECHTRIBE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("TECHTRIBE_LLM_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}
	if v := os.Getenv("TECHTRIBE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
}
