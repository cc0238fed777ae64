package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avolkov/mdex/internal/logging"
	"github.com/avolkov/mdex/internal/pipeline"
)

var settleDelay time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and extract filings as they arrive",
	Long: `Watch monitors a directory for new .txt filings and extracts each one
as it lands. Writes are debounced so a filing is only processed once
it has stopped growing.

Runs until interrupted.

Example:
  mdex watch ./incoming --output-dir ./sections
  mdex watch ./incoming --settle 5s`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&outputDir, "output-dir", "./mdex-output", "output directory for extracted sections")
	watchCmd.Flags().BoolVar(&jsonSidecar, "json", false, "also write a JSON metadata sidecar per filing")
	watchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the normalized-document cache")
	watchCmd.Flags().DurationVar(&settleDelay, "settle", 2*time.Second, "quiet period before a new file is processed")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("watch target is not a directory: %s", dir)
	}

	cfg := baseConfig()
	cfg.Output.Dir = outputDir
	cfg.Output.JSON = jsonSidecar
	if noCache {
		cfg.Cache.Enabled = false
	}

	log := logging.New(verbose, logJSON)
	defer func() { _ = log.Sync() }()

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Watching %s (output: %s)\n", dir, outputDir)

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
		wg      sync.WaitGroup
	)

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			t.Reset(settleDelay)
			return
		}
		pending[path] = time.AfterFunc(settleDelay, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()

			wg.Add(1)
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if _, err := p.ExtractFile(ctx, path); err != nil {
				log.Error("extraction failed", zap.String("file", filepath.Base(path)), zap.Error(err))
				return
			}
			fmt.Fprintf(os.Stderr, "✓ %s\n", filepath.Base(path))
		})
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for path, t := range pending {
				t.Stop()
				delete(pending, path)
			}
			mu.Unlock()
			wg.Wait()
			fmt.Fprintln(os.Stderr, "Stopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".txt") {
				continue
			}
			schedule(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		}
	}
}
