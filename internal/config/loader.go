package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "quench.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "quench.yml"

// envPrefix namespaces environment overrides, e.g. QUENCH_CHECK_LIMIT.
const envPrefix = "QUENCH_"

// configFileUsed records the file the last Load call read, for verbose output.
var configFileUsed string

// GetConfigFileUsed returns the path of the config file used by the last
// Load, or empty if none was found.
func GetConfigFileUsed() string {
	return configFileUsed
}

// Load builds a validated Config for the project containing startDir.
//
// Layering, lowest to highest precedence: file values, QUENCH_* environment
// variables, command-line flags. A missing config file is not an error; the
// defaults describe a usable zero-config project rooted at startDir.
func Load(startDir, explicitFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	root := startDir
	configPath := explicitFile
	if configPath == "" {
		if found := FindProjectRoot(startDir); found != "" {
			root = found
			configPath = findConfigFile(found)
		}
	} else {
		root = filepath.Dir(configPath)
	}

	configFileUsed = configPath
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, &ValidationError{Field: "file", Msg: fmt.Sprintf("cannot read %s: %v", configPath, err)}
		}
	}

	// QUENCH_CHECK_LIMIT=10 -> check.limit
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flag overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, &ValidationError{Field: "file", Msg: fmt.Sprintf("cannot parse configuration: %v", err)}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	cfg.Project.Root = abs

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}

// FindProjectRoot walks up from the given directory to find a directory
// containing quench.yaml or quench.yml. Returns empty string if not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if findConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}
