package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type LoadOptions struct {
	ExplicitPath string
	WorkingDir   string
	Env          map[string]string
}

// fileConfig uses pointers so an absent key never clobbers a value set by a
// lower-precedence layer.
type fileConfig struct {
	Version  *int         `yaml:"version"`
	Defaults fileDefaults `yaml:"defaults"`
}

type fileDefaults struct {
	DestinationDir        *string `yaml:"destination_dir"`
	MaxParallelJobs       *int    `yaml:"max_parallel_jobs"`
	MergeTool             *string `yaml:"merge_tool"`
	ServeAddr             *string `yaml:"serve_addr"`
	CommandTimeoutSeconds *int    `yaml:"command_timeout_seconds"`
}

// Load layers configuration: built-in defaults, then the user config, then
// the project config, then YTBR_* environment overrides. An explicit path
// replaces the user+project pair and must exist.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	cwd := opts.WorkingDir
	if strings.TrimSpace(cwd) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cwd = wd
	}

	env := opts.Env
	if env == nil {
		env = osEnvMap()
	}

	if explicit := strings.TrimSpace(opts.ExplicitPath); explicit != "" {
		if err := mergeFile(&cfg, explicit, true); err != nil {
			return Config{}, err
		}
	} else {
		userPath, err := UserConfigPath()
		if err != nil {
			return Config{}, err
		}
		if err := mergeFile(&cfg, userPath, false); err != nil {
			return Config{}, err
		}

		if err := mergeFile(&cfg, ProjectConfigPath(cwd), false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file does not exist: %s", path)
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(payload, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Version != nil {
		cfg.Version = *fc.Version
	}
	if fc.Defaults.DestinationDir != nil {
		cfg.Defaults.DestinationDir = strings.TrimSpace(*fc.Defaults.DestinationDir)
	}
	if fc.Defaults.MaxParallelJobs != nil {
		cfg.Defaults.MaxParallelJobs = *fc.Defaults.MaxParallelJobs
	}
	if fc.Defaults.MergeTool != nil {
		cfg.Defaults.MergeTool = strings.TrimSpace(*fc.Defaults.MergeTool)
	}
	if fc.Defaults.ServeAddr != nil {
		cfg.Defaults.ServeAddr = strings.TrimSpace(*fc.Defaults.ServeAddr)
	}
	if fc.Defaults.CommandTimeoutSeconds != nil {
		cfg.Defaults.CommandTimeoutSeconds = *fc.Defaults.CommandTimeoutSeconds
	}

	return nil
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	if value := strings.TrimSpace(env["YTBR_DESTINATION_DIR"]); value != "" {
		cfg.Defaults.DestinationDir = value
	}
	if value := strings.TrimSpace(env["YTBR_MAX_PARALLEL_JOBS"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid YTBR_MAX_PARALLEL_JOBS value %q: %w", value, err)
		}
		cfg.Defaults.MaxParallelJobs = parsed
	}
	if value := strings.TrimSpace(env["YTBR_MERGE_TOOL"]); value != "" {
		cfg.Defaults.MergeTool = value
	}
	if value := strings.TrimSpace(env["YTBR_SERVE_ADDR"]); value != "" {
		cfg.Defaults.ServeAddr = value
	}
	if value := strings.TrimSpace(env["YTBR_COMMAND_TIMEOUT_SECONDS"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid YTBR_COMMAND_TIMEOUT_SECONDS value %q: %w", value, err)
		}
		cfg.Defaults.CommandTimeoutSeconds = parsed
	}
	return nil
}

func osEnvMap() map[string]string {
	result := map[string]string{}
	for _, pair := range os.Environ() {
		pieces := strings.SplitN(pair, "=", 2)
		if len(pieces) == 2 {
			result[pieces[0]] = pieces[1]
		}
	}
	return result
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	return nil
}
