package allowlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ggoodman/authgate-go"
)

// fileDoc is the on-disk shape consumed by File.
type fileDoc struct {
	APIKeys    []string          `json:"api_keys"`
	BasicUsers map[string]string `json:"basic_users"`
}

// File is an allow list backed by a JSON document on disk. The document is
// loaded at construction and reloaded whenever the file changes, so keys can
// be rotated without a restart. A failed reload keeps the last good list.
type File struct {
	path string
	log  *slog.Logger

	mu      sync.RWMutex
	current *Static

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFile loads the allow-list document at path and starts watching it for
// changes. The initial load is fatal on failure.
func NewFile(path string, log *slog.Logger) (*File, error) {
	if log == nil {
		log = slog.Default()
	}
	f := &File{path: path, log: log, done: make(chan struct{})}
	if err := f.Reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("allowlist watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	f.watcher = watcher
	go f.watch()
	return f, nil
}

// Reload re-reads the document and atomically swaps the active list.
func (f *File) Reload() error {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read allowlist %s: %w", f.path, err)
	}
	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("parse allowlist %s: %w", f.path, err)
	}
	next := NewStatic(doc.APIKeys, doc.BasicUsers)

	f.mu.Lock()
	f.current = next
	f.mu.Unlock()
	return nil
}

func (f *File) watch() {
	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := f.Reload(); err != nil {
				f.log.Error("allowlist.reload.fail",
					slog.String("path", f.path),
					slog.String("err", err.Error()))
				continue
			}
			// Editors replace files; re-add in case the inode changed.
			_ = f.watcher.Add(f.path)
			f.log.Info("allowlist.reload.ok", slog.String("path", f.path))
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Error("allowlist.watch.fail", slog.String("err", err.Error()))
		}
	}
}

// Close stops the file watcher.
func (f *File) Close() error {
	close(f.done)
	if f.watcher != nil {
		return f.watcher.Close()
	}
	return nil
}

func (f *File) ValidateKey(ctx context.Context, key string) error {
	f.mu.RLock()
	cur := f.current
	f.mu.RUnlock()
	return cur.ValidateKey(ctx, key)
}

func (f *File) Authenticate(ctx context.Context, username string, password *string) error {
	f.mu.RLock()
	cur := f.current
	f.mu.RUnlock()
	return cur.Authenticate(ctx, username, password)
}

var (
	_ authgate.APIKeyProvider    = (*File)(nil)
	_ authgate.BasicAuthProvider = (*File)(nil)
)
