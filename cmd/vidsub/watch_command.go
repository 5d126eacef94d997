package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"vidsub/internal/batch"
	"vidsub/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Transcribe videos as they appear in a directory",
		Long: "Watch processes every video written into <dir> once it has stopped growing.\n" +
			"Files already present when watching starts are left alone; run process for those.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve watch directory: %w", err)
			}
			s, err := openSession(cmd, ctx, &flags)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			var outMu sync.Mutex
			handler := func(jobCtx context.Context, path string) {
				result := s.runner.Process(jobCtx, batch.Input{Path: path, Root: root})
				outMu.Lock()
				printResultLine(out, result)
				outMu.Unlock()
			}
			w, err := watcher.New(root, handler, watcher.Options{
				Settle:    settle,
				Workers:   s.cfg.Batch.Workers,
				Recursive: s.cfg.Batch.Recursive,
				Match:     batch.IsVideo,
			}, s.logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", root)
			return w.Run(cmd.Context())
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&settle, "settle", 5*time.Second, "How long a file must stop changing before it is processed")
	return cmd
}
