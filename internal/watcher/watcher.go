// Package watcher provides file following with debouncing for follow mode.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/glinthq/glint/internal/log"
)

// Follower monitors a file for changes and emits its full contents after
// each quiet period. Emitting the whole file rather than a delta keeps the
// consumer free to diff: appends highlight incrementally, rewrites reset.
type Follower struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	onChange  chan string
	done      chan struct{}
}

// Config holds follower configuration options.
type Config struct {
	Path        string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for following path.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		DebounceDur: 200 * time.Millisecond,
	}
}

// New creates a follower for the file named in cfg.
func New(cfg Config) (*Follower, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Follower{
		fsWatcher: fsw,
		path:      cfg.Path,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the file's directory. Watching the directory
// instead of the file survives editors that replace the file on save.
// Returns a channel that receives the file's contents after each change.
func (f *Follower) Start() (<-chan string, error) {
	dir := filepath.Dir(f.path)
	if err := f.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go f.loop()

	return f.onChange, nil
}

// Stop terminates the follower and releases resources.
func (f *Follower) Stop() error {
	close(f.done)
	return f.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (f *Follower) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-f.fsWatcher.Events:
			if !ok {
				return
			}

			if !f.isRelevantEvent(event) {
				continue
			}

			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(f.debounce)
				pending = true
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(f.debounce)
				pending = true
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				f.emit()
				pending = false
			}

		case err, ok := <-f.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatch, "Watcher error", err, "path", f.path)

		case <-f.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// emit reads the file and pushes its contents, replacing any queued value
// so a slow consumer only ever sees the newest snapshot.
func (f *Follower) emit() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		log.ErrorErr(log.CatWatch, "Failed to re-read followed file", err, "path", f.path)
		return
	}

	select {
	case f.onChange <- string(data):
	default:
		select {
		case <-f.onChange:
		default:
		}
		f.onChange <- string(data)
	}
}

// isRelevantEvent checks if the event should trigger a re-read.
func (f *Follower) isRelevantEvent(event fsnotify.Event) bool {
	// Create covers editors that write a temp file and rename it over ours.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Base(event.Name) == filepath.Base(f.path)
}
