package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid config"
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
}

func Validate(cfg Config) error {
	problems := []string{}

	if cfg.Version != 1 {
		problems = append(problems, "version must be 1")
	}

	destination, err := ExpandPath(cfg.Defaults.DestinationDir)
	if err != nil || strings.TrimSpace(destination) == "" {
		problems = append(problems, "defaults.destination_dir must be a valid path")
	}

	if cfg.Defaults.MaxParallelJobs <= 0 {
		problems = append(problems, "defaults.max_parallel_jobs must be > 0")
	}
	if strings.TrimSpace(cfg.Defaults.MergeTool) == "" {
		problems = append(problems, "defaults.merge_tool must be set")
	}
	if strings.TrimSpace(cfg.Defaults.ServeAddr) == "" {
		problems = append(problems, "defaults.serve_addr must be set")
	}
	if cfg.Defaults.CommandTimeoutSeconds <= 0 {
		problems = append(problems, "defaults.command_timeout_seconds must be > 0")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
