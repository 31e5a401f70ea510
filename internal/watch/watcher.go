package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/adverant/nexus/resultocr-worker/internal/batch"
	"github.com/adverant/nexus/resultocr-worker/internal/logging"
)

// RunFunc performs one full batch run
type RunFunc func(ctx context.Context) error

// Watcher re-runs the batch after eligible files in a directory settle
type Watcher struct {
	dir      string
	debounce time.Duration
	run      RunFunc
	logger   *logging.Logger
}

// New creates a watcher over dir. A zero debounce uses 500ms.
func New(dir string, debounce time.Duration, run RunFunc, logger *logging.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{dir: dir, debounce: debounce, run: run, logger: logger}
}

// relevant reports whether ev may change the report.
func relevant(ev fsnotify.Event) bool {
	if !batch.IsEligible(filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// Watch runs the batch once, then again each time the directory has been
// quiet for the debounce interval after a relevant event. It returns when ctx
// is done or the watcher fails. Run errors are logged and do not stop it.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching directory", "dir", w.dir, "debounce", w.debounce)

	w.runOnce(ctx)

	// nil until a relevant event arrives; each event pushes the deadline out
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.logger.Debug("Change detected", "path", ev.Name, "op", ev.Op.String())
			settle = time.After(w.debounce)
		case <-settle:
			settle = nil
			w.runOnce(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watch error", "error", err)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	if err := w.run(ctx); err != nil {
		w.logger.Error("Batch run failed", "error", err)
	}
}
