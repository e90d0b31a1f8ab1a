package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Upstream realtime provider.
	OpenAIAPIKey     string
	RealtimeModel    string
	DefaultVoice     string
	RealtimeURL      string
	ClientSecretsURL string

	// Public base URL the telephony provider dials back to; rewritten to
	// its ws(s) equivalent when building the stream URL.
	PublicWSURL string

	// Optional shared bearer secret for the token endpoint. Empty disables auth.
	AuthToken string

	// Per-source-address fixed window limit on token minting.
	TokenRateLimitMax    int
	TokenRateLimitWindow time.Duration

	// Empty or "*" allows every origin.
	AllowedOrigins []string

	// If true, client identity may be derived from proxy headers like X-Forwarded-For.
	// This should only be enabled when deployed behind a trusted proxy/LB.
	TrustProxyHeaders bool

	DataDir string

	// Outbound HTTP bounds.
	ToolTimeout time.Duration
	MintTimeout time.Duration

	// Telephony/AI websocket bounds.
	WSWriteTimeout     time.Duration
	WSHandshakeTimeout time.Duration

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                 listenAddr(),
		OpenAIAPIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		RealtimeModel:        envOr("REALTIME_MODEL", "gpt-realtime"),
		DefaultVoice:         strings.TrimSpace(os.Getenv("DEFAULT_VOICE")),
		RealtimeURL:          envOr("REALTIME_URL", "wss://api.openai.com/v1/realtime"),
		ClientSecretsURL:     envOr("REALTIME_CLIENT_SECRETS_URL", "https://api.openai.com/v1/realtime/client_secrets"),
		PublicWSURL:          envOr("PUBLIC_WS_URL", strings.TrimSpace(os.Getenv("AGENT_API_PUBLIC_URL"))),
		AuthToken:            strings.TrimSpace(os.Getenv("AUTH_TOKEN")),
		TokenRateLimitMax:    envIntOr("TOKEN_RATE_LIMIT_MAX", 10),
		TokenRateLimitWindow: time.Duration(envIntOr("TOKEN_RATE_LIMIT_WINDOW_MS", 60_000)) * time.Millisecond,
		AllowedOrigins:       splitCSV(os.Getenv("ALLOWED_ORIGINS")),
		TrustProxyHeaders:    envBoolOr("TRUST_PROXY_HEADERS", false),
		DataDir:              envOr("DATA_DIR", "data"),
		ToolTimeout:          envDurationOr("TOOL_HTTP_TIMEOUT", 10*time.Second),
		MintTimeout:          envDurationOr("TOKEN_MINT_TIMEOUT", 10*time.Second),
		WSWriteTimeout:       envDurationOr("WS_WRITE_TIMEOUT", 5*time.Second),
		WSHandshakeTimeout:   envDurationOr("WS_HANDSHAKE_TIMEOUT", 5*time.Second),
		ReadHeaderTimeout:    envDurationOr("READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod:  envDurationOr("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.TokenRateLimitMax <= 0 {
		return Config{}, fmt.Errorf("TOKEN_RATE_LIMIT_MAX must be > 0")
	}
	if cfg.TokenRateLimitWindow <= 0 {
		return Config{}, fmt.Errorf("TOKEN_RATE_LIMIT_WINDOW_MS must be > 0")
	}
	if cfg.ToolTimeout <= 0 {
		return Config{}, fmt.Errorf("TOOL_HTTP_TIMEOUT must be > 0")
	}
	if cfg.MintTimeout <= 0 {
		return Config{}, fmt.Errorf("TOKEN_MINT_TIMEOUT must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSHandshakeTimeout <= 0 {
		return Config{}, fmt.Errorf("WS_HANDSHAKE_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	if cfg.PublicWSURL != "" {
		if _, err := url.Parse(cfg.PublicWSURL); err != nil {
			return Config{}, fmt.Errorf("PUBLIC_WS_URL is not a valid URL: %w", err)
		}
	}

	return cfg, nil
}

// OriginAllowed reports whether a browser origin may call the HTTP API.
// No origin header, an empty allowlist, or a "*" entry all allow.
func (c Config) OriginAllowed(origin string) bool {
	if origin == "" || len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

func listenAddr() string {
	if addr := strings.TrimSpace(os.Getenv("ADDR")); addr != "" {
		return addr
	}
	return ":" + envOr("PORT", "8787")
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
