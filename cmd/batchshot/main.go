// Package main implements the batch screenshot CLI.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tweetshot/internal/batch"
	"tweetshot/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		urls      []string
		listFile  string
		serverURL string
		outputDir string
		nightMode int
		delay     time.Duration
		devLog    bool
	)

	cmd := &cobra.Command{
		Use:   "batchshot",
		Short: "Capture tweet screenshots in bulk through a running tweetshot server",
		Long: `batchshot submits each URL to the tweetshot JSON API in order, paced
by a configurable delay, and downloads the resulting images into a
local directory. A failed URL is reported but does not stop the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listFile != "" {
				fromFile, err := batch.ReadURLList(listFile)
				if err != nil {
					return fmt.Errorf("read url list: %w", err)
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given; use --url or --file")
			}

			logger, err := logging.New(devLog, "")
			if err != nil {
				return fmt.Errorf("logger init: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := batch.NewClient(batch.Config{
				ServerURL: serverURL,
				OutputDir: outputDir,
				NightMode: nightMode,
				Delay:     delay,
			}, logger)

			sum, err := client.Run(ctx, urls)
			if err != nil {
				return err
			}

			fmt.Printf("Processed %d URLs: %d succeeded, %d failed\n",
				sum.Total, sum.Succeeded, len(sum.Failed))
			for _, u := range sum.Failed {
				fmt.Printf("  failed: %s\n", u)
			}
			if len(sum.Failed) > 0 {
				logger.Warn("batch finished with failures", zap.Int("failed", len(sum.Failed)))
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&urls, "url", nil, "tweet URL to capture (repeatable)")
	cmd.Flags().StringVar(&listFile, "file", "", "file with one tweet URL per line")
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:5001", "base URL of the tweetshot server")
	cmd.Flags().StringVar(&outputDir, "output", "downloaded_screenshots", "directory for downloaded images")
	cmd.Flags().IntVar(&nightMode, "mode", 0, "theme: 0 light, 1 dark, 2 black")
	cmd.Flags().DurationVar(&delay, "delay", time.Second, "minimum spacing between requests")
	cmd.Flags().BoolVar(&devLog, "dev-log", false, "human-readable development logging")

	return cmd
}
