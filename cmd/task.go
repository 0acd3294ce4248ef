package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/queue"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Run one pipeline operation in-process",
	}
	cmd.AddCommand(newTaskOpCmd("categories", queue.OpCategorySync,
		"Fetch and sync a platform's category taxonomy"))
	cmd.AddCommand(newTaskOpCmd("urls", queue.OpURLDiscovery,
		"Discover listing URLs for a platform"))
	cmd.AddCommand(newTaskDetailsCmd())
	cmd.AddCommand(newTaskDebugURLCmd())
	return cmd
}

// platformFlag parses and validates the shared --platform flag.
func platformFlag(cmd *cobra.Command) (crawler.Platform, error) {
	raw, err := cmd.Flags().GetString("platform")
	if err != nil {
		return "", err
	}
	platform := crawler.Platform(raw)
	if !platform.Valid() {
		return "", fmt.Errorf("unknown platform %q", raw)
	}
	return platform, nil
}

// runTask builds the platform runtime and hands the task to the worker
// dispatch, the same code path queue deliveries take.
func runTask(cmd *cobra.Command, task queue.Task) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer flushLogger(logger)

	svc, err := openServices(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	rt, err := svc.runtime(task.Platform)
	if err != nil {
		return err
	}
	worker, err := queue.NewWorker(
		map[crawler.Platform]queue.Runtime{task.Platform: rt},
		svc.repo,
		cfg.Worker.DetailLimit,
		logger.Named("worker"),
	)
	if err != nil {
		return err
	}
	return worker.Handle(cmd.Context(), task)
}

func newTaskOpCmd(use, op, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			platform, err := platformFlag(cmd)
			if err != nil {
				return err
			}
			return runTask(cmd, queue.NewTask(platform, op))
		},
	}
	cmd.Flags().String("platform", "", "target platform (required)")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}

func newTaskDetailsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "details",
		Short: "Fetch and parse pending detail pages for a platform",
		RunE: func(cmd *cobra.Command, _ []string) error {
			platform, err := platformFlag(cmd)
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			task := queue.NewTask(platform, queue.OpDetailProcessing)
			task.Limit = limit
			return runTask(cmd, task)
		},
	}
	cmd.Flags().String("platform", "", "target platform (required)")
	cmd.Flags().Int("limit", 0, "max pending URLs to claim (0 = configured default)")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}

// newTaskDebugURLCmd fetches and parses a single URL without touching the
// store, printing the normalized job as JSON.
func newTaskDebugURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug-url <url>",
		Short: "Fetch and parse one detail URL, printing the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := platformFlag(cmd)
			if err != nil {
				return err
			}
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer flushLogger(logger)

			svc, err := openServices(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			rt, err := svc.runtime(platform)
			if err != nil {
				return err
			}

			jobURL := args[0]
			raw, err := rt.Orchestrator.Fetcher().FetchDetail(cmd.Context(), jobURL)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", jobURL, err)
			}
			meta, err := svc.cache.Get(cmd.Context(), platform, jobURL)
			if err != nil || meta == nil {
				meta = crawler.Item{}
			}
			job, err := rt.Orchestrator.Parser().ParseDetail(raw, jobURL, meta)
			if err != nil {
				return fmt.Errorf("parse %s: %w", jobURL, err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(job)
		},
	}
	cmd.Flags().String("platform", "", "target platform (required)")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}
