package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnolang/qlint/internal/types"
)

// settleDelay lets an editor finish writing before the file is linted.
const settleDelay = 100 * time.Millisecond

// ReportFunc receives the lint result of a changed file.
type ReportFunc func(filename string, issues []tt.Issue)

// Watch lints query files under dirs whenever they are created or written,
// until ctx is done. With no dirs it watches the engine's root directory.
func (e *Engine) Watch(ctx context.Context, dirs []string, report ReportFunc) error {
	if len(dirs) == 0 {
		dirs = []string{e.rootDir}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}
	e.logger.Info("watching for changes", zap.Strings("dirs", dirs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			e.handleFileEvent(event, report)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(event fsnotify.Event, report ReportFunc) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !IsQueryFile(event.Name) {
		return
	}

	time.Sleep(settleDelay)
	issues, err := e.Run(event.Name)
	if err != nil {
		e.logger.Error("error linting changed file", zap.String("file", event.Name), zap.Error(err))
		return
	}
	e.logger.Debug("linted changed file", zap.String("file", event.Name), zap.Int("issues", len(issues)))
	if report != nil {
		report(event.Name, issues)
	}
}
