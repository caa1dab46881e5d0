package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher invalidates cached descriptors when files under a FileSystem
// repository change.
type Watcher struct {
	fs           *FileSystem
	watcher      *fsnotify.Watcher
	invalidators []Invalidator
	log          *logrus.Logger

	// OnInvalidate is called after each invalidation, mainly for tests
	OnInvalidate func(path string)
}

// NewWatcher starts watching every directory below the repository root
func NewWatcher(fs *FileSystem, log *logrus.Logger, invalidators ...Invalidator) (*Watcher, error) {
	if log == nil {
		log = logrus.New()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	err = filepath.Walk(fs.Root(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", fs.Root(), err)
	}

	return &Watcher{
		fs:           fs,
		watcher:      w,
		invalidators: invalidators,
		log:          log,
	}, nil
}

// Run processes events until ctx is cancelled or the watcher is closed
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Watcher error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.log.WithError(err).WithField("path", event.Name).Warn("Failed to watch new directory")
			}
			return
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	a, ok := w.fs.ArtifactForPath(event.Name)
	if !ok {
		return
	}

	for _, inv := range w.invalidators {
		if err := inv.Invalidate(ctx, a); err != nil {
			w.log.WithError(err).WithField("artifact", a.String()).Warn("Failed to invalidate descriptor")
		}
	}
	w.log.WithFields(logrus.Fields{
		"artifact": a.String(),
		"op":       event.Op.String(),
	}).Info("Descriptor changed")

	if w.OnInvalidate != nil {
		w.OnInvalidate(event.Name)
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
