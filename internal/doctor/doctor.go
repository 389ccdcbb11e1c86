package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/jaa/ytbr/internal/config"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Check struct {
	Severity Severity `json:"severity"`
	Name     string   `json:"name"`
	Message  string   `json:"message"`
}

type Report struct {
	Checks []Check `json:"checks"`
}

func (r Report) HasErrors() bool {
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Checker probes the host for everything a download job needs: the merge
// tool on PATH and a writable destination. Every probe is injectable so
// tests never touch the real system.
type Checker struct {
	LookPath      func(string) (string, error)
	ReadVersion   func(context.Context, string) (string, error)
	CheckWritable func(string) error
}

func NewChecker() *Checker {
	return &Checker{
		LookPath:    exec.LookPath,
		ReadVersion: defaultReadVersion,
		CheckWritable: func(path string) error {
			return checkDirWritable(path)
		},
	}
}

func (c *Checker) Check(ctx context.Context, cfg config.Config) Report {
	report := Report{Checks: []Check{}}

	tool := strings.TrimSpace(cfg.Defaults.MergeTool)
	if tool == "" {
		tool = "ffmpeg"
	}

	location, err := c.LookPath(tool)
	if err != nil {
		report.Checks = append(report.Checks, Check{
			Severity: SeverityError,
			Name:     "dependency",
			Message:  fmt.Sprintf("%s not found in PATH", tool),
		})
	} else {
		report.Checks = append(report.Checks, Check{
			Severity: SeverityInfo,
			Name:     "dependency",
			Message:  fmt.Sprintf("%s found at %s", tool, location),
		})

		output, versionErr := c.ReadVersion(ctx, tool)
		if versionErr != nil {
			report.Checks = append(report.Checks, Check{
				Severity: SeverityWarn,
				Name:     "dependency",
				Message:  fmt.Sprintf("%s version could not be read: %v", tool, versionErr),
			})
		} else if version, parseErr := extractVersion(output); parseErr != nil {
			report.Checks = append(report.Checks, Check{
				Severity: SeverityWarn,
				Name:     "dependency",
				Message:  fmt.Sprintf("%s version output is unrecognized: %q", tool, firstLine(output)),
			})
		} else {
			report.Checks = append(report.Checks, Check{
				Severity: SeverityInfo,
				Name:     "dependency",
				Message:  fmt.Sprintf("%s version %s", tool, version),
			})
		}
	}

	destination, err := config.ExpandPath(cfg.Defaults.DestinationDir)
	if err != nil || strings.TrimSpace(destination) == "" {
		report.Checks = append(report.Checks, Check{
			Severity: SeverityError,
			Name:     "filesystem",
			Message:  fmt.Sprintf("destination_dir is invalid: %q", cfg.Defaults.DestinationDir),
		})
		return report
	}

	if err := c.CheckWritable(destination); err != nil {
		report.Checks = append(report.Checks, Check{
			Severity: SeverityError,
			Name:     "filesystem",
			Message:  fmt.Sprintf("destination_dir is not writable: %v", err),
		})
	} else {
		report.Checks = append(report.Checks, Check{
			Severity: SeverityInfo,
			Name:     "filesystem",
			Message:  fmt.Sprintf("destination_dir %s is writable", destination),
		})
	}

	if cfg.Defaults.MaxParallelJobs > 8 {
		report.Checks = append(report.Checks, Check{
			Severity: SeverityWarn,
			Name:     "config",
			Message:  fmt.Sprintf("max_parallel_jobs=%d may saturate network bandwidth", cfg.Defaults.MaxParallelJobs),
		})
	}

	return report
}

func defaultReadVersion(ctx context.Context, binary string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}
	return string(output), nil
}

func checkDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	file, err := os.CreateTemp(path, ".ytbr-write-check-*")
	if err != nil {
		return err
	}
	name := file.Name()
	_ = file.Close()
	_ = os.Remove(name)
	return nil
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

func extractVersion(raw string) (string, error) {
	matches := versionPattern.FindStringSubmatch(raw)
	if len(matches) < 3 {
		return "", fmt.Errorf("no version found")
	}
	if matches[3] == "" {
		return fmt.Sprintf("%s.%s", matches[1], matches[2]), nil
	}
	return fmt.Sprintf("%s.%s.%s", matches[1], matches[2], matches[3]), nil
}

func firstLine(raw string) string {
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}
