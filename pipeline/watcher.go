package pipeline

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/vkngwrapper/lhll/logx"
)

const shaderExt = ".spv"

// Watcher reports SPIR-V files that change in a shader directory. Events are
// collected on a background goroutine; the frame loop drains them between
// frames with Changed.
type Watcher struct {
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	changes chan string
	done    chan struct{}
	wg      sync.WaitGroup
}

func Watch(dir string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create shader watcher")
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "watch shader directory %s", dir)
	}

	w := &Watcher{
		logger:  logx.OrDiscard(logger).With("component", "shader-watcher"),
		watcher: fsw,
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	w.logger.Debug("watching shaders", "dir", dir)
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != shaderExt {
				continue
			}
			// Compilers often write to a temp file and rename it into place
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			select {
			case w.changes <- filepath.Clean(event.Name):
			default:
				w.logger.Debug("dropping shader change, queue full", "file", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("shader watcher error", "error", err)
		}
	}
}

// Changes is the raw stream of changed shader paths.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Changed drains every change seen so far without blocking. A file that
// changed several times is reported once.
func (w *Watcher) Changed() []string {
	var paths []string
	seen := map[string]bool{}
	for {
		select {
		case path := <-w.changes:
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
		default:
			return paths
		}
	}
}

func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	if err != nil {
		return errors.Wrap(err, "close shader watcher")
	}
	return nil
}
