package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"folklorovich/catalog"
	"folklorovich/collage"
	"folklorovich/config"
	"folklorovich/fetch"
	"folklorovich/ledger"
	"folklorovich/pipeline"
	"folklorovich/quota"
	"folklorovich/render"
	"folklorovich/retry"
	"folklorovich/rotation"
	"folklorovich/types"
	"folklorovich/voice"
)

// Exit codes for the external trigger: 0 succeeded, 1 failed, 2 aborted
const (
	exitFailed  = 1
	exitAborted = 2
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one generation run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// One run at a time: reject a concurrent invocation instead of
			// interleaving state writes.
			lock, err := rotation.AcquireLock(cfg.Paths.Lock)
			if err != nil {
				return err
			}

			orch, err := buildOrchestrator(cfg)
			if err != nil {
				_ = lock.Release()
				return err
			}

			rec, runErr := orch.RunOnce(cmd.Context())
			_ = lock.Release()

			if rec == nil {
				return runErr
			}
			fmt.Print(pipeline.Report(rec))

			switch rec.Status {
			case types.StatusSucceeded:
				return nil
			case types.StatusAborted:
				os.Exit(exitAborted)
			default:
				os.Exit(exitFailed)
			}
			return nil
		},
	}
}

// buildOrchestrator wires the real stage adapters into the pipeline
func buildOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, error) {
	cat, err := catalog.Load(cfg.Paths.Catalog)
	if err != nil {
		return nil, err
	}
	counter, err := quota.Open(cfg.Paths.UsageLog)
	if err != nil {
		return nil, err
	}

	runDir := filepath.Join(cfg.Paths.Output, time.Now().Format("2006-01-02_150405"))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	policy := retry.New(cfg.Retry.MaxAttempts, time.Duration(cfg.Retry.BaseDelaySec*float64(time.Second)))

	fetcher := fetch.NewUnsplash(
		cfg.Fetch.Endpoint, cfg.Fetch.Service,
		cfg.Fetch.RequestCount, cfg.Fetch.TimeoutSec,
		filepath.Join(runDir, "images"),
		counter, policy,
	)
	synthesizer := voice.NewEdgeTTS(filepath.Join(runDir, "audio"), cfg.Voice.MinDurationSec, cfg.Voice.MaxDurationSec, policy)
	composer := collage.NewFFmpegComposer(cfg.Collage.Width, cfg.Collage.Height, cfg.Collage.MinImages, runDir)
	renderer := render.NewFFmpegRenderer(cfg.Render.FPS, cfg.Render.ToleranceSec, cfg.Render.MinSizeBytes, runDir)

	return pipeline.New(
		cfg, cat,
		rotation.NewFileStore(cfg.Paths.State),
		counter,
		ledger.New(cfg.Paths.Ledger),
		fetch.NewCache(cfg.Paths.Cache),
		pipeline.Adapters{
			Fetcher:     fetcher,
			Synthesizer: synthesizer.Synthesize,
			Composer:    composer.Compose,
			Renderer:    renderer.Render,
		},
	), nil
}
