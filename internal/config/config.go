package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/actionwire/internal/protocol/tlv"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultName           = "actiond"
	DefaultAddr           = ":8080"
	DefaultHandlerTimeout = 10 * time.Second

	// maxPayloadCeiling keeps configured limits within the u32 length prefix.
	maxPayloadCeiling = 64 << 20
	maxDepthCeiling   = 256
)

type ServerConfig struct {
	Name            string          `toml:"name"`
	Addr            string          `toml:"addr"`
	CorsOrigins     []string        `toml:"cors_origins"`
	TrustedProxies  []string        `toml:"trusted_proxies"`
	AuthToken       string          `toml:"auth_token"`
	TLSCertFile     string          `toml:"tls_cert_file"`
	TLSKeyFile      string          `toml:"tls_key_file"`
	MaxPayloadBytes int             `toml:"max_payload_bytes"`
	MaxDepth        int             `toml:"max_depth"`
	HandlerTimeout  Duration        `toml:"handler_timeout"`
	Telemetry       TelemetryConfig `toml:"telemetry"`
}

type TelemetryConfig struct {
	Endpoint string `toml:"endpoint"`
	Insecure bool   `toml:"insecure"`
}

// Duration reads Go duration strings such as "250ms" from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultServerConfig is the configuration used when no file is given.
func DefaultServerConfig() ServerConfig {
	limits := tlv.DefaultLimits()
	return ServerConfig{
		Name:            DefaultName,
		Addr:            DefaultAddr,
		MaxPayloadBytes: limits.MaxPayloadBytes,
		MaxDepth:        limits.MaxDepth,
		HandlerTimeout:  Duration{DefaultHandlerTimeout},
	}
}

func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	applyServerDefaults(&cfg)
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func applyServerDefaults(cfg *ServerConfig) {
	def := DefaultServerConfig()
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = def.Name
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = def.Addr
	}
	if cfg.MaxPayloadBytes == 0 {
		cfg.MaxPayloadBytes = def.MaxPayloadBytes
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = def.MaxDepth
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if cfg.MaxPayloadBytes <= 0 || cfg.MaxPayloadBytes > maxPayloadCeiling {
		return fmt.Errorf("max_payload_bytes must be in (0, %d]", maxPayloadCeiling)
	}
	if cfg.MaxDepth <= 0 || cfg.MaxDepth > maxDepthCeiling {
		return fmt.Errorf("max_depth must be in (0, %d]", maxDepthCeiling)
	}
	if cfg.HandlerTimeout.Duration < 0 {
		return fmt.Errorf("handler_timeout must not be negative")
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return fmt.Errorf("tls_cert_file and tls_key_file must be set together")
	}
	for i, origin := range cfg.CorsOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("cors_origins[%d] is empty", i)
		}
	}
	return nil
}

// TLSEnabled reports whether the server should terminate TLS itself.
func (cfg ServerConfig) TLSEnabled() bool {
	return cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""
}

// Limits returns the decode limits described by cfg.
func (cfg ServerConfig) Limits() tlv.Limits {
	return tlv.Limits{MaxPayloadBytes: cfg.MaxPayloadBytes, MaxDepth: cfg.MaxDepth}
}
