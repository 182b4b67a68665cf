package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	// empty DatabaseURL keeps client records in memory
	DatabaseURL string

	BackendBaseURL    string
	GraphQLPath       string
	BackendTimeoutSec int
	InventoryAPI      string // "rest" or "graphql"

	JWTIssuer          string
	DeviceTokenSecret  string
	DeviceTokenTTLDays int

	LogLevel  string
	LogFormat string

	RateLimitRPS   int
	RateLimitBurst int
	CORSOrigins    []string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// Load reads the optional YAML file named by CONFIG_FILE, then lets
// environment variables override it.
func Load() (Config, error) {
	file := map[string]string{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		file, err = readFile(path)
		if err != nil {
			return Config{}, err
		}
	}
	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		if v, ok := file[k]; ok && v != "" {
			return v
		}
		return def
	}
	getInt := func(k string, def int) int {
		if v := get(k, ""); v != "" {
			n, err := strconv.Atoi(v)
			if err == nil {
				return n
			}
		}
		return def
	}

	cfg := Config{
		AppEnv:   get("APP_ENV", "dev"),
		HTTPAddr: get("HTTP_ADDR", ":8080"),

		DatabaseURL: get("DATABASE_URL", ""),

		BackendBaseURL:    strings.TrimRight(get("BACKEND_BASE_URL", "http://localhost:8081"), "/"),
		GraphQLPath:       get("GRAPHQL_PATH", "/graphql"),
		BackendTimeoutSec: getInt("BACKEND_TIMEOUT_SEC", 15),
		InventoryAPI:      strings.ToLower(get("INVENTORY_API", "rest")),

		JWTIssuer:          get("JWT_ISSUER", "smecs-storefront"),
		DeviceTokenSecret:  get("DEVICE_TOKEN_SECRET", ""),
		DeviceTokenTTLDays: getInt("DEVICE_TOKEN_TTL_DAYS", 365),

		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "text"),

		RateLimitRPS:   getInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 40),
		CORSOrigins:    splitList(get("CORS_ORIGINS", "http://localhost:5173")),

		SMTPHost: get("SMTP_HOST", ""),
		SMTPPort: getInt("SMTP_PORT", 587),
		SMTPUser: get("SMTP_USER", ""),
		SMTPPass: get("SMTP_PASS", ""),
		SMTPFrom: get("SMTP_FROM", ""),
	}
	if cfg.InventoryAPI != "rest" && cfg.InventoryAPI != "graphql" {
		return Config{}, fmt.Errorf("INVENTORY_API must be rest or graphql, got %q", cfg.InventoryAPI)
	}
	if cfg.DeviceTokenSecret == "" && cfg.AppEnv != "dev" {
		return Config{}, fmt.Errorf("DEVICE_TOKEN_SECRET is required outside dev")
	}
	if cfg.DeviceTokenSecret == "" {
		cfg.DeviceTokenSecret = "dev-only-device-secret"
	}
	return cfg, nil
}

func (c Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// readFile accepts a flat YAML mapping of the same keys as the environment.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch vv := v.(type) {
		case []any:
			parts := make([]string, 0, len(vv))
			for _, p := range vv {
				parts = append(parts, fmt.Sprint(p))
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		case nil:
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(vv)
		}
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
