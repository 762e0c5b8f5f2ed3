package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/metatext-core/internal/config"
	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/poller"
	"github.com/custodia-labs/metatext-core/internal/metrics"
)

// newPollImageCommand polls a URL until it serves an image. It needs no
// database, so it reads defaults rather than the full configuration.
func newPollImageCommand(_ *commandContext) *cobra.Command {
	defaults := config.Default()
	var (
		timeout  time.Duration
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "poll-image URL",
		Short: "Wait until a URL serves an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := defaults.Log.NewLogger(os.Stderr)
			m := metrics.New()
			p := newPoller(&defaults, m, logger)

			start := time.Now()
			err := p.Poll(cmd.Context(), args[0],
				poller.WithTimeout(timeout),
				poller.WithInterval(interval),
			)
			elapsed := time.Since(start).Round(time.Millisecond)

			var timeoutErr *domain.ImagePollTimeoutError
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "image loaded after %s\n", elapsed)
				return nil
			case errors.As(err, &timeoutErr):
				return fmt.Errorf("image did not load within %s: %w", timeout, err)
			default:
				return err
			}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaults.Poller.Timeout, "Give up after this long")
	cmd.Flags().DurationVar(&interval, "interval", defaults.Poller.Interval, "Delay between attempts")
	return cmd
}
