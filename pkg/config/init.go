package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const configHeader = `# dittostore Configuration File
#
# Values can be overridden with DITTOSTORE_* environment variables, e.g.
#   DITTOSTORE_LOGGING_LEVEL=DEBUG
#   DITTOSTORE_STORE_TYPE=badger
#
# store.type selects one of the memory, badger and bolt sections below.
# blob.type "s3" checks every upload location with a HEAD request before the
# version completes; "none" trusts the client.

`

// InitConfig writes a default configuration file to the default location.
//
// Parameters:
//   - force: overwrite an existing file
//
// Returns the path of the written file.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateYAMLWithComments renders cfg as YAML under a descriptive header.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var b strings.Builder
	b.WriteString(configHeader)

	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return b.String(), nil
}
