package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads a scenario configuration.
// Search order: customPath -> ~/.cfd/scenario.yaml -> ./scenario.yaml -> embedded default
func Load(customPath string) (Scenario, error) {
	cfg := DefaultScenario()

	// Try custom path first; a broken explicit path is an error, unlike
	// the optional fallbacks below.
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, cfg.Validate()
	}

	// Try user config directory
	if userCfgPath := userConfigPath("scenario.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, cfg.Validate()
			}
		}
	}

	// Try local scenario file
	if data, err := os.ReadFile("scenario.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, cfg.Validate()
		}
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultScenarioYAML, &cfg); err != nil {
		return DefaultScenario(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, cfg.Validate()
}

// userConfigPath returns the path to the user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cfd", filename)
}
