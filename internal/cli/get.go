package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"github.com/jaa/ytbr/internal/config"
	"github.com/jaa/ytbr/internal/engine"
	"github.com/jaa/ytbr/internal/exitcode"
	"github.com/jaa/ytbr/internal/provider"
	"github.com/spf13/cobra"
)

func newGetCommand(app *AppContext) *cobra.Command {
	var destDir string
	var parallel int
	var mergeTool string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "get URL [URL...]",
		Short: "Download and merge one or more videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			dest := destDir
			if dest == "" {
				dest = cfg.Defaults.DestinationDir
			}
			dest, err = config.ExpandPath(dest)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			maxParallel := parallel
			if maxParallel <= 0 {
				maxParallel = cfg.Defaults.MaxParallelJobs
			}
			tool := mergeTool
			if tool == "" {
				tool = cfg.Defaults.MergeTool
			}
			commandTimeout := timeout
			if commandTimeout <= 0 {
				commandTimeout = time.Duration(cfg.Defaults.CommandTimeoutSeconds) * time.Second
			}

			emitter := newEmitter(app)
			merger := engine.NewFFmpegMerger(tool, nil)
			manager := engine.NewManager(provider.NewYouTube(), merger, emitter, "", maxParallel)

			ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, commandTimeout)
			defer cancel()

			for _, url := range args {
				manager.Submit(ctx, engine.DownloadRequest{
					URL:            url,
					DestinationDir: dest,
				})
			}
			manager.Wait()

			if errors.Is(ctx.Err(), context.Canceled) {
				return withExitCode(exitcode.Interrupted, fmt.Errorf("interrupted"))
			}
			return summarize(manager.List())
		},
	}

	cmd.Flags().StringVarP(&destDir, "dest", "d", "", "Destination directory (default from config)")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "Maximum concurrent jobs (default from config)")
	cmd.Flags().StringVar(&mergeTool, "merge-tool", "", "Merge tool binary (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall timeout (e.g. 10m, 1h)")
	return cmd
}

func summarize(jobs []engine.Job) error {
	failed := 0
	missingTool := false
	for _, job := range jobs {
		if job.Status != engine.JobFailed {
			continue
		}
		failed++
		if job.Failure == engine.FailureMergeToolNotFound {
			missingTool = true
		}
	}

	switch {
	case failed == 0:
		return nil
	case missingTool:
		return withExitCode(exitcode.MissingDependency, fmt.Errorf("%d of %d job(s) failed: merge tool not found", failed, len(jobs)))
	case failed == len(jobs):
		return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("all %d job(s) failed", failed))
	default:
		return withExitCode(exitcode.PartialSuccess, fmt.Errorf("%d of %d job(s) failed", failed, len(jobs)))
	}
}
