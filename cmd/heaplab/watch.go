package main

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/heapcore/internal/cli"
)

// watchScript re-runs run every time scriptPath changes on disk, resetting
// the allocator first (run is expected to build a fresh one). It blocks
// until the watcher errors or the process is signaled.
func watchScript(scriptPath string, run func() error, logger *cli.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(scriptPath); err != nil {
		return fmt.Errorf("watching %s: %w", scriptPath, err)
	}

	runOnce := func() {
		if err := run(); err != nil {
			logger.Error("%v", err)
		}
	}

	runOnce()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logger.Info("%s changed, re-running", scriptPath)
				runOnce()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			return fmt.Errorf("watcher: %w", err)
		}
	}
}
