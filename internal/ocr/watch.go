package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"investnotes/internal/utils"
)

// Watcher calls OnChange after new notebook photos land in a directory.
// Events arriving within Debounce of each other trigger a single call.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	OnChange func(ctx context.Context) error

	logger *utils.Logger
}

func NewWatcher(dir string, logger *utils.Logger, onChange func(ctx context.Context) error) *Watcher {
	return &Watcher{
		Dir:      dir,
		Debounce: 2 * time.Second,
		OnChange: onChange,
		logger:   logger,
	}
}

// Run blocks until ctx is canceled. Failures of OnChange are logged and do
// not stop the watch.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}
	w.logger.Info("Watching %s for new images", w.Dir)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			added := ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)
			if !added || !IsImage(ev.Name) {
				continue
			}
			w.logger.Debug("Image event %s on %s", ev.Op, ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Stop()
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.OnChange(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Error("Processing new images failed: %v", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watch error: %v", err)
		}
	}
}
