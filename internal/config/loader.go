package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1 << 20 // 1MB

// Load arma la config en este orden (el último gana):
//  1. Default()
//  2. YAML en path (o $MEDEASE_CONFIG si path == ""), si existe
//  3. .env en el cwd, si existe (no pisa variables ya definidas)
//  4. variables de entorno: SECTION_FIELD_NAME -> section.field_name
func Load(path string) (Config, error) {
	// .env es opcional (dev); si existe tiene que parsear.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")
	cfg := Default()

	if path == "" {
		path = os.Getenv("MEDEASE_CONFIG")
	}
	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// sections son las claves de primer nivel de Config; el resto del
// entorno (PATH, HOME, ...) no entra a koanf.
var sections = map[string]bool{
	"app":       true,
	"server":    true,
	"log":       true,
	"db":        true,
	"auth":      true,
	"email":     true,
	"whatsapp":  true,
	"scheduler": true,
	"reminders": true,
}

// envKey mapea SCHEDULER_MAX_CONCURRENCY -> scheduler.max_concurrency.
// Solo el primer "_" separa sección de campo. "" descarta la variable.
func envKey(s string) string {
	parts := strings.SplitN(strings.ToLower(s), "_", 2)
	if len(parts) != 2 || parts[1] == "" || !sections[parts[0]] {
		return ""
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
