package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// TLS holds client-side TLS passthrough options for readiness probing.
type TLS struct {
	Insecure        bool   `json:"insecure" yaml:"insecure" toml:"insecure"`
	ClientCertFile  string `json:"client_cert_file" yaml:"client_cert_file" toml:"client_cert_file"`
	ClientKeyFile   string `json:"client_key_file" yaml:"client_key_file" toml:"client_key_file"`
	ClientKeyPasswd string `json:"client_key_passwd" yaml:"client_key_passwd" toml:"client_key_passwd"`
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified"; the supervisor applies its own defaults.
type Config struct {
	// Worker binding.
	Host string `json:"host" yaml:"host" toml:"host"`
	Port int    `json:"port" yaml:"port" toml:"port"`

	// Model selection.
	ModelPath   string `json:"model_path" yaml:"model_path" toml:"model_path"`
	ModelFamily string `json:"model_family" yaml:"model_family" toml:"model_family"`

	// Backend choice: empty means "determine from the model file".
	Backend     string `json:"backend" yaml:"backend" toml:"backend"`
	BackendArgs string `json:"backend_args" yaml:"backend_args" toml:"backend_args"`

	// llama tuning. GPULayers is a pointer so that an explicit 0 (keep every
	// layer on the CPU) is distinguishable from "unset"; nil falls back to
	// the -1 everything-on-GPU default at the CLI layer.
	GPULayers  *int `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	MaxCtxSize int  `json:"max_ctx_size" yaml:"max_ctx_size" toml:"max_ctx_size"`
	NumThreads int  `json:"num_threads" yaml:"num_threads" toml:"num_threads"`

	// Engine binaries.
	LlamaBin string `json:"llama_bin" yaml:"llama_bin" toml:"llama_bin"`
	VLLMBin  string `json:"vllm_bin" yaml:"vllm_bin" toml:"vllm_bin"`

	// Control API listen address, e.g. ":9090". Empty disables it.
	ControlAddr string `json:"control_addr" yaml:"control_addr" toml:"control_addr"`

	// Worker output handling.
	Quiet   bool   `json:"quiet" yaml:"quiet" toml:"quiet"`
	LogFile string `json:"log_file" yaml:"log_file" toml:"log_file"`

	TLS TLS `json:"tls" yaml:"tls" toml:"tls"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, cfg.normalize()
}

// normalize expands '~' in path fields.
func (c *Config) normalize() error {
	var err error
	if c.ModelPath, err = expandHome(c.ModelPath); err != nil {
		return fmt.Errorf("model_path: %w", err)
	}
	if c.LogFile, err = expandHome(c.LogFile); err != nil {
		return fmt.Errorf("log_file: %w", err)
	}
	return nil
}

// expandHome rewrites "~" and "~/..." to the current user's home directory.
// Anything else, including "~user" forms, passes through untouched.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
