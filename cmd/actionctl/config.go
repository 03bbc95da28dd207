package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultEndpoint = "http://localhost:8080"
	defaultTimeout  = 5 * time.Second
)

type clientConfig struct {
	Endpoint  string
	Timeout   time.Duration
	AuthToken string
	CAFile    string
}

type fileConfig struct {
	Endpoint  string `toml:"endpoint"`
	Timeout   string `toml:"timeout"`
	TimeoutMS int64  `toml:"timeout_ms"`
	AuthToken string `toml:"auth_token"`
	CAFile    string `toml:"ca_file"`
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		Endpoint: defaultEndpoint,
		Timeout:  defaultTimeout,
	}
}

func loadClientConfig(path string) (clientConfig, error) {
	cfg := defaultClientConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return clientConfig{}, fmt.Errorf("load actionctl config: %w", err)
	}

	if meta.IsDefined("endpoint") {
		if endpoint := strings.TrimSpace(raw.Endpoint); endpoint != "" {
			cfg.Endpoint = endpoint
		}
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return clientConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}

	if meta.IsDefined("timeout_ms") {
		cfg.Timeout = time.Duration(raw.TimeoutMS) * time.Millisecond
	}

	if meta.IsDefined("auth_token") {
		cfg.AuthToken = strings.TrimSpace(raw.AuthToken)
	}

	if meta.IsDefined("ca_file") {
		cfg.CAFile = strings.TrimSpace(raw.CAFile)
	}

	if cfg.Timeout <= 0 {
		return clientConfig{}, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	return cfg, nil
}
