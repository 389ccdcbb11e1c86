package doctor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jaa/ytbr/internal/config"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Defaults.DestinationDir = "/tmp/media"
	return cfg
}

func TestDoctorMissingMergeTool(t *testing.T) {
	checker := &Checker{
		LookPath:      func(name string) (string, error) { return "", fmt.Errorf("not found") },
		ReadVersion:   func(ctx context.Context, binary string) (string, error) { return "", nil },
		CheckWritable: func(path string) error { return nil },
	}

	report := checker.Check(context.Background(), testConfig())
	if !report.HasErrors() {
		t.Fatalf("expected doctor error for missing merge tool")
	}
	if !hasCheckContaining(report, SeverityError, "not found in PATH") {
		t.Fatalf("expected PATH error, got %+v", report.Checks)
	}
}

func TestDoctorReportsToolVersion(t *testing.T) {
	checker := &Checker{
		LookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
		ReadVersion: func(ctx context.Context, binary string) (string, error) {
			return "ffmpeg version 6.1.1 Copyright (c) 2000-2023", nil
		},
		CheckWritable: func(path string) error { return nil },
	}

	report := checker.Check(context.Background(), testConfig())
	if report.HasErrors() {
		t.Fatalf("did not expect errors, got %+v", report.Checks)
	}
	if !hasCheckContaining(report, SeverityInfo, "version 6.1.1") {
		t.Fatalf("expected version info check, got %+v", report.Checks)
	}
}

func TestDoctorWarnsOnUnreadableVersion(t *testing.T) {
	checker := &Checker{
		LookPath:      func(name string) (string, error) { return "/usr/bin/" + name, nil },
		ReadVersion:   func(ctx context.Context, binary string) (string, error) { return "", fmt.Errorf("exit 1") },
		CheckWritable: func(path string) error { return nil },
	}

	report := checker.Check(context.Background(), testConfig())
	if report.HasErrors() {
		t.Fatalf("version read failure must not be fatal, got %+v", report.Checks)
	}
	if !hasCheckContaining(report, SeverityWarn, "version could not be read") {
		t.Fatalf("expected version warning, got %+v", report.Checks)
	}
}

func TestDoctorUnwritableDestination(t *testing.T) {
	checker := &Checker{
		LookPath:      func(name string) (string, error) { return "/usr/bin/" + name, nil },
		ReadVersion:   func(ctx context.Context, binary string) (string, error) { return "ffmpeg version 6.0", nil },
		CheckWritable: func(path string) error { return fmt.Errorf("permission denied") },
	}

	report := checker.Check(context.Background(), testConfig())
	if !hasCheckContaining(report, SeverityError, "not writable") {
		t.Fatalf("expected filesystem error, got %+v", report.Checks)
	}
}

func TestDoctorWarnsOnHighParallelism(t *testing.T) {
	cfg := testConfig()
	cfg.Defaults.MaxParallelJobs = 32

	checker := &Checker{
		LookPath:      func(name string) (string, error) { return "/usr/bin/" + name, nil },
		ReadVersion:   func(ctx context.Context, binary string) (string, error) { return "ffmpeg version 6.0", nil },
		CheckWritable: func(path string) error { return nil },
	}

	report := checker.Check(context.Background(), cfg)
	if !hasCheckContaining(report, SeverityWarn, "max_parallel_jobs") {
		t.Fatalf("expected parallelism warning, got %+v", report.Checks)
	}
}

func TestExtractVersionHandlesTwoAndThreePartVersions(t *testing.T) {
	got, err := extractVersion("ffmpeg version 6.1.1-3ubuntu5")
	if err != nil || got != "6.1.1" {
		t.Fatalf("expected 6.1.1, got %q err=%v", got, err)
	}
	got, err = extractVersion("ffmpeg version 7.0")
	if err != nil || got != "7.0" {
		t.Fatalf("expected 7.0, got %q err=%v", got, err)
	}
	if _, err := extractVersion("no digits here"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func hasCheckContaining(report Report, severity Severity, snippet string) bool {
	for _, check := range report.Checks {
		if check.Severity == severity && strings.Contains(check.Message, snippet) {
			return true
		}
	}
	return false
}
