package config

// Config is the root configuration for the TechTribe backend.
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Auth     AuthConfig     `yaml:"auth,omitempty"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	Chat     ChatConfig     `yaml:"chat,omitempty"`
	Contact  ContactConfig  `yaml:"contact,omitempty"`
	Notify   NotifyConfig   `yaml:"notify,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// ServerConfig controls the HTTP/WebSocket server.
type ServerConfig struct {
	Port           int       `yaml:"port,omitempty"`
	Bind           string    `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string    `yaml:"customBindHost,omitempty"`
	TLS            ServerTLS `yaml:"tls,omitempty"`
	AllowedOrigins []string  `yaml:"allowedOrigins,omitempty"`
}

// ServerTLS configures TLS for the server.
type ServerTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// AuthConfig configures operator authentication.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwtSecret,omitempty"`
	TokenTTLHours int    `yaml:"tokenTTLHours,omitempty"`
	AdminSecret   string `yaml:"adminSecret,omitempty"` // required to register new operators
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"` // empty: <base>/data/techtribe.db
}

// ChatConfig controls the support chat and its automated responder.
type ChatConfig struct {
	Provider                string        `yaml:"provider,omitempty"` // "gemini" | "none"
	APIKey                  string        `yaml:"apiKey,omitempty"`
	Model                   string        `yaml:"model,omitempty"`
	ResponderTimeoutSeconds int           `yaml:"responderTimeoutSeconds,omitempty"`
	HistoryLimit            int           `yaml:"historyLimit,omitempty"`
	TranscriptLimit         int           `yaml:"transcriptLimit,omitempty"`
	DirectoryLimit          int           `yaml:"directoryLimit,omitempty"`
	Persona                 PersonaConfig `yaml:"persona,omitempty"`
	FallbackReply           string        `yaml:"fallbackReply,omitempty"`
}

// PersonaConfig describes the assistant identity used in the system prompt.
type PersonaConfig struct {
	BusinessName string       `yaml:"businessName,omitempty"`
	Language     string       `yaml:"language,omitempty"`
	Tone         string       `yaml:"tone,omitempty"`
	MaxSentences int          `yaml:"maxSentences,omitempty"`
	Prices       []PriceEntry `yaml:"prices,omitempty"`
}

// PriceEntry is one line of the price list quoted by the assistant.
type PriceEntry struct {
	Name     string `yaml:"name"`
	Price    int    `yaml:"price"`
	Currency string `yaml:"currency,omitempty"`
}

// ContactConfig controls delivery of contact-form notifications.
type ContactConfig struct {
	NotifyEmail          string `yaml:"notifyEmail,omitempty"`
	SenderEmail          string `yaml:"senderEmail,omitempty"`
	GmailCredentialsFile string `yaml:"gmailCredentialsFile,omitempty"`
	GmailTokenFile       string `yaml:"gmailTokenFile,omitempty"`
}

// NotifyConfig groups operator notification channels.
type NotifyConfig struct {
	IRC *IRCConfig `yaml:"irc,omitempty"`
}

// IRCConfig defines the IRC announcement channel.
type IRCConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port,omitempty"`
	Nick     string `yaml:"nick"`
	Password string `yaml:"password,omitempty"`
	Channel  string `yaml:"channel"`
	UseTLS   bool   `yaml:"useTLS,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
