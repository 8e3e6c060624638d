package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// EnvFilePath returns the env file to load: the explicit path if given,
// otherwise ENV_FILE, otherwise ".env".
func EnvFilePath(explicit string, lookup Lookup) string {
	if explicit != "" {
		return explicit
	}
	if v, ok := lookup(EnvFile); ok && v != "" {
		return v
	}
	return DefaultEnvFile
}

// LoadEnvFile loads variables from path into the process environment without
// overriding variables that are already set. A missing file is only an error
// when required is true.
func LoadEnvFile(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// ReadEnvFile parses path into a map without touching the process
// environment. Used when two configurations are compared side by side.
func ReadEnvFile(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return m, nil
}
