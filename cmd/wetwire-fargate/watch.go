package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-fargate-go/internal/render"
	"github.com/lex00/wetwire-fargate-go/internal/validation"
)

// newWatchCmd creates the "watch" subcommand for re-synthesizing on env file changes.
func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		debounce     time.Duration
		target       string
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize when the env file changes",
		Long: `Watch monitors the env file and re-synthesizes on every change.

The watch command:
- Watches the directory holding the env file, so editor renames are seen
- Validates the new topology and reports invariant violations
- Renders the document to --output, or stdout
- Debounces rapid changes to avoid excessive rebuilds

Values in the env file take precedence over the process environment while
watching, so edits are always picked up.

Examples:
    wetwire-fargate watch -o main.tf.json
    wetwire-fargate watch --env-file prod.env --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts, cmd.OutOrStdout(), watchOptions{
				debounce:     debounce,
				target:       target,
				outputFormat: outputFormat,
				outputFile:   outputFile,
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&target, "target", "t", "terraform", "Render target: terraform or cloudformation")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml (cloudformation only)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

type watchOptions struct {
	debounce     time.Duration
	target       string
	outputFormat string
	outputFile   string
}

// runWatch monitors the env file and rebuilds on changes until ctx is done.
func runWatch(ctx context.Context, opts *globalOptions, w io.Writer, wopts watchOptions) error {
	target, err := render.ParseTarget(wopts.target)
	if err != nil {
		return err
	}

	path, err := filepath.Abs(opts.envFilePath())
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	fmt.Fprintf(w, "Watching: %s\n", path)

	fmt.Fprintln(w, "Running initial synth...")
	rebuild(opts, w, path, target, wopts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(w, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isEnvFileEvent(event, path) {
				continue
			}

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(wopts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(w, "\n[%s] Change detected, re-synthesizing...\n", time.Now().Format("15:04:05"))
			rebuild(opts, w, path, target, wopts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.logger().Error("watch error", "error", err)

		case <-ctx.Done():
			fmt.Fprintln(w, "\nStopping watch...")
			return nil
		}
	}
}

// isEnvFileEvent reports whether event writes or replaces path.
func isEnvFileEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// rebuild synthesizes, validates and renders once. Failures are reported and
// the watch continues.
func rebuild(opts *globalOptions, w io.Writer, path string, target render.Target, wopts watchOptions) bool {
	cfg, topo, err := opts.synthesizeFile(path)
	if err != nil {
		for _, line := range configErrorLines(err) {
			fmt.Fprintf(w, "error: %s\n", line)
		}
		return false
	}

	if violations := validation.CheckTopology(topo); len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(w, "error: %s\n", v)
		}
		return false
	}

	data, err := render.Render(topo, cfg, target, render.Format(wopts.outputFormat))
	if err != nil {
		fmt.Fprintf(w, "error: render failed: %v\n", err)
		return false
	}

	if wopts.outputFile == "" {
		fmt.Fprintln(w, string(data))
	} else if err := os.WriteFile(wopts.outputFile, append(data, '\n'), 0644); err != nil {
		fmt.Fprintf(w, "error: writing %s: %v\n", wopts.outputFile, err)
		return false
	}

	fmt.Fprintf(w, "OK: %d resources, listener mode %s\n", topo.Len(), topo.ListenerMode())
	return true
}
