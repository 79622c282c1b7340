package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".mapard.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile overlays YAML settings from path onto c. If the file does
// not exist it returns ErrConfigNotFound; callers decide whether that is
// fatal based on whether the path was explicit.
func LoadConfigFile(c *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

// FindConfigFile searches for the configuration file:
//  1. The explicit path, if given.
//  2. .mapard.yaml in the current directory.
//  3. .mapard.yaml in the XDG config directory.
//
// Returns the path if found, or empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}
	return ""
}

// LoadEnv populates the secret-bearing settings from the environment,
// optionally loading a .env file first. Secrets are kept out of the YAML
// file so the config can be committed and shared without scrubbing.
//
// Recognized variables: MAPARD_SMTP_USER, MAPARD_SMTP_PASSWORD, and
// MAPARD_SMTP_HOST / MAPARD_SMTP_SENDER as overrides.
func LoadEnv(c *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return err
		}
	} else {
		// Best effort: a .env in the working directory is a convenience,
		// not a requirement.
		_ = godotenv.Load()
	}

	if v := os.Getenv("MAPARD_SMTP_USER"); v != "" {
		c.SMTP.User = v
	}
	if v := os.Getenv("MAPARD_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("MAPARD_SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("MAPARD_SMTP_SENDER"); v != "" {
		c.SMTP.Sender = v
	}
	return nil
}
