package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvConfig carries credentials and operational toggles that never belong in
// the digest document.
type EnvConfig struct {
	DigestConfigPath string
	RunOnce          bool
	DryRun           bool
	Discord          DiscordEnvConfig
	OpenAI           OpenAIEnvConfig
	Feed             FeedEnvConfig
	OTel             OTelEnvConfig
}

type DiscordEnvConfig struct {
	WebhookURL  string
	HTTPTimeout time.Duration
	UserAgent   string
}

type OpenAIEnvConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type FeedEnvConfig struct {
	HTTPTimeout time.Duration
	UserAgent   string
}

type OTelEnvConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Protocol    string // "grpc" or "http/protobuf"
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

func LoadEnv() EnvConfig {
	otlpEndpoint := strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""))

	openAIModel := strings.TrimSpace(envString("OPENAI_MODEL", ""))
	if openAIModel == "" {
		openAIModel = "gpt-4o-mini"
	}

	return EnvConfig{
		DigestConfigPath: envString("HERALD_CONFIG", "herald.yaml"),
		RunOnce:          envBool("RUN_ONCE", false),
		DryRun:           envBool("DRY_RUN", false),
		Discord: DiscordEnvConfig{
			WebhookURL:  strings.TrimSpace(envString("DISCORD_WEBHOOK_URL", "")),
			HTTPTimeout: envDuration("DISCORD_HTTP_TIMEOUT", 10*time.Second),
			UserAgent:   envString("DISCORD_USER_AGENT", "feedherald/0.1"),
		},
		OpenAI: OpenAIEnvConfig{
			APIKey:  strings.TrimSpace(envString("OPENAI_API_KEY", "")),
			BaseURL: strings.TrimSpace(envString("OPENAI_BASE_URL", "")),
			Model:   openAIModel,
		},
		Feed: FeedEnvConfig{
			HTTPTimeout: envDuration("FEED_HTTP_TIMEOUT", 10*time.Second),
			UserAgent:   envString("FEED_USER_AGENT", "feedherald/0.1"),
		},
		OTel: OTelEnvConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			ServiceName: strings.TrimSpace(envString("OTEL_SERVICE_NAME", "feedherald")),
			Endpoint:    otlpEndpoint,
			Protocol:    strings.ToLower(strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			Headers:     parseHeaders(envString("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", defaultInsecure(otlpEndpoint)),
			SampleRatio: clamp01(envFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0)),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func defaultInsecure(endpoint string) bool {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return true
	}
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return u.Scheme == "http"
	}
	return strings.HasPrefix(endpoint, "localhost:") ||
		strings.HasPrefix(endpoint, "127.0.0.1:") ||
		strings.HasPrefix(endpoint, "0.0.0.0:")
}
