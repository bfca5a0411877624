package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"animehub/internal/config"
	"animehub/internal/domain"
	"animehub/internal/events"
	"animehub/internal/library"
	"animehub/internal/logging"
)

// Watcher publishes FileObserved events for files that appear or change
// under the library roots. Bursts of filesystem activity (a torrent client
// writing chunks, a copy in progress) are debounced so each file surfaces
// once it settles.
type Watcher struct {
	cfg      *config.Config
	store    *library.Store
	bus      *events.Bus
	log      *slog.Logger
	debounce time.Duration
}

func NewWatcher(cfg *config.Config, store *library.Store, bus *events.Bus, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:      cfg,
		store:    store,
		bus:      bus,
		log:      logging.NewComponentLogger(logger, "watcher"),
		debounce: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
	}
}

// Run watches until the context is canceled. Directories created while
// watching are added to the watch set; pending paths are flushed one
// debounce interval after their last event.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range w.cfg.Paths.LibraryDirs {
		if err := addRecursive(watcher, root); err != nil {
			return err
		}
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := addRecursive(watcher, event.Name); err != nil {
					w.log.Warn("watch new directory failed", "path", event.Name, "error", err.Error())
				}
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err.Error())

		case <-timer.C:
			w.flush(ctx, pending)
			pending = make(map[string]struct{})
		}
	}
}

// flush observes every settled path and publishes it to the pipeline.
func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) {
	for path := range pending {
		role := roleForPath(w.cfg, path)
		if role == domain.FileRoleOther {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		file, err := w.store.UpsertFileByPath(ctx, path, role, info.Size(), info.ModTime(), domain.FileOriginScan)
		if err != nil {
			w.log.Error("record observed file failed", "path", path, "error", err.Error())
			continue
		}

		result := w.bus.Publish(events.FileObserved{
			Meta:       events.NewMeta(),
			FileID:     file.ID,
			Path:       file.Path,
			Role:       string(file.Role),
			Size:       file.Size,
			ModifiedAt: file.ModifiedAt,
		})
		for _, handlerErr := range result.Errors {
			w.log.Warn("observation handler failed",
				"path", path,
				"handler", handlerErr.Index,
				"error", handlerErr.Err.Error(),
			)
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
