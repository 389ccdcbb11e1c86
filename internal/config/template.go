package config

import "fmt"

func DefaultTemplate() string {
	return fmt.Sprintf(`version: 1
defaults:
  destination_dir: %q
  max_parallel_jobs: %d
  merge_tool: "ffmpeg"
  serve_addr: ":8080"
  command_timeout_seconds: %d
`, defaultDestinationDir(), 2, 900)
}
