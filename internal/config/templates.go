package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "limits":
		return limitsTemplate, nil
	case "service":
		return serviceTemplate, nil
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

const limitsTemplate = `[json]
max_depth = 512
max_number_len = 64

[multipart]
max_parts = 100
max_boundary_len = 256
boundary_lookahead = 200
max_param_len = 1024
max_content_type_len = 256

[headers]
max_name_len = 1024

[registry]
capacity = 1000
`

const serviceTemplate = `name = "parsectl"
addr = ":9200"
cors_origins = ["http://localhost:3000"]
limits_path = "cmd/parsectl/limits.toml"
log_level = "info"
max_body_bytes = 8388608
# auth_token = "change-me"
# tls_cert_file = "certs/server.crt"
# tls_key_file = "certs/server.key"
`
