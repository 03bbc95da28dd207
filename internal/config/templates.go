package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "client":
		return clientTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `name = "actiond"
addr = ":8080"
cors_origins = ["http://localhost:3000"]
trusted_proxies = ["127.0.0.1", "::1"]
auth_token = ""
max_payload_bytes = 1048576
max_depth = 32
handler_timeout = "10s"

[telemetry]
endpoint = ""
insecure = true
`

const clientTemplate = `endpoint = "http://localhost:8080"
timeout = "5s"
auth_token = ""
`
