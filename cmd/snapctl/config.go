package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "snapctl.yaml"

// cliConfig is the snapctl config file. Every field can also be set per
// invocation with flags; flags win over the file.
type cliConfig struct {
	// Server is the inventory server base URL, e.g. http://localhost:8080.
	Server string `yaml:"server"`
	// APIKey is sent as X-API-Key on every server call.
	APIKey string `yaml:"api_key"`
	// UnwantedPatternsFile overrides the shipped unwanted-software list for
	// local evaluation.
	UnwantedPatternsFile string `yaml:"unwanted_patterns_file"`
}

// loadCLIConfig reads the config file named by --config, falling back to
// ./snapctl.yaml. A missing default file is not an error; a missing explicit
// file is.
func loadCLIConfig() (*cliConfig, error) {
	path := configPath
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}

	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")
	return &cfg, nil
}
