package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	placeholderPath  = "{path}"
	placeholderQuery = "{query}"
)

type Config struct {
	Bind    string        `yaml:"bind"`
	Delay   time.Duration `yaml:"delay"`
	LogFile string        `yaml:"logFile"`
	Search  SearchConfig  `yaml:"search"`
	Verbose bool          `yaml:"verbose"`
	Watch   WatchConfig   `yaml:"watch"`
}

type SearchConfig struct {
	Command []string `yaml:"command"`
}

type WatchConfig struct {
	Command    []string `yaml:"command"`
	Extensions []string `yaml:"extensions"`
	Root       string   `yaml:"root"`
	Skip       []string `yaml:"skip"`
}

func defaultConfig() *Config {
	return &Config{
		Bind:    ":9003",
		LogFile: "settle.log",
		Search: SearchConfig{
			Command: []string{"grep", "-rn", "--color=always", "-e", placeholderQuery, "."},
		},
		Watch: WatchConfig{
			Extensions: []string{".go"},
			Root:       ".",
		},
	}
}

// loadConfig reads filename over the defaults. An empty filename returns the defaults.
func loadConfig(filename string) (*Config, error) {
	config := defaultConfig()
	if filename == "" {
		return config, nil
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", filename, err)
	}
	if config.Delay < 0 {
		return nil, errors.New("delay must not be negative")
	}
	return config, nil
}
