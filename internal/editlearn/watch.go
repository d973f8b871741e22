package editlearn

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher could not be created.
var ErrWatcherFailed = errors.New("failed to create watcher")

// Watch scans once to seed the hash cache, then rescans whenever a file in
// a monitored path is written or created. Notices are passed to onNotice.
// Watch blocks until ctx is done.
func (s *Scanner) Watch(ctx context.Context, onNotice func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	defer func() { _ = watcher.Close() }()

	watched := 0
	for _, mp := range MonitoredPaths {
		full := filepath.Join(s.root, mp)
		if _, err := os.Stat(full); err != nil {
			continue
		}
		if err := watcher.Add(full); err != nil {
			s.logger.Warn("failed to watch path", zap.String("path", mp), zap.Error(err))
			continue
		}
		watched++
	}
	s.logger.Info("watching workflow files", zap.Int("paths", watched))

	emit := func(notices []string) {
		for _, n := range notices {
			onNotice(n)
		}
	}
	emit(s.Scan(ctx))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.logger.Debug("workflow file changed", zap.String("file", event.Name))
			emit(s.Scan(ctx))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
