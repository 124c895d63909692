package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/loop"
	"github.com/spaghettifunk/kanvas/engine/resources"
)

// FnOnChange receives the path of a watched file that was written or
// recreated. It runs on the execution context.
type FnOnChange func(path string)

// Watcher reports changes to the files behind loaded resources. It only
// reports; reloading is up to the caller.
type Watcher struct {
	// Watched files and how many resources use each.
	files map[string]int
	// Watched directories and how many files keep each one watched.
	dirs  map[string]int
	mutex sync.RWMutex

	dispatcher loop.Dispatcher
	onChange   FnOnChange

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewWatcher(dispatcher loop.Dispatcher, onChange FnOnChange) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		files:      make(map[string]int),
		dirs:       make(map[string]int),
		dispatcher: dispatcher,
		onChange:   onChange,
		fsnotify:   fsWatch,
		done:       make(chan struct{}),
	}
	go w.start()
	return w, nil
}

// Watch starts reporting changes to the named file. The parent directory is
// watched instead of the file so that editors replacing the file are seen.
func (w *Watcher) Watch(path string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.isClosed {
		return errors.New("watcher already closed")
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if determineAssetType(path) == resources.ResourceTypeNone {
		return nil
	}
	if w.files[path] == 0 {
		dir := filepath.Dir(path)
		if w.dirs[dir] == 0 {
			if err := w.fsnotify.Add(dir); err != nil {
				return err
			}
		}
		w.dirs[dir]++
	}
	w.files[path]++
	return nil
}

// Unwatch undoes one Watch of the named file.
func (w *Watcher) Unwatch(path string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	path, err := filepath.Abs(path)
	if err != nil || w.files[path] == 0 {
		return
	}
	w.files[path]--
	if w.files[path] > 0 {
		return
	}
	delete(w.files, path)

	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		if !w.isClosed {
			// Fails when the directory itself was removed; nothing to undo then.
			_ = w.fsnotify.Remove(dir)
		}
	}
}

// WatchTree watches every asset file below root.
func (w *Watcher) WatchTree(root string) error {
	return filepath.Walk(root, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || strings.HasPrefix(fi.Name(), ".") {
			return nil
		}
		return w.Watch(walkPath)
	})
}

// Watching reports whether path is currently watched.
func (w *Watcher) Watching(path string) bool {
	path, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.files[path] > 0
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	return w.fsnotify.Close()
}

func (w *Watcher) start() {
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.handleFileEvent(e.Name)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleFileEvent(path string) {
	w.mutex.RLock()
	watched := w.files[path] > 0
	w.mutex.RUnlock()
	if !watched {
		return
	}
	w.dispatcher.Post(func() {
		// Unwatched between the event and now.
		if !w.Watching(path) {
			return
		}
		w.onChange(path)
	})
}

// determineAssetType guesses the resource type from the file extension.
// Loaders still sniff the content; this only filters what is worth watching.
func determineAssetType(path string) resources.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".tif", ".tiff":
		return resources.ResourceTypeImage
	case ".wav", ".mp3":
		return resources.ResourceTypeAudio
	case ".mp4", ".m4v", ".webm", ".mkv", ".mov", ".avi":
		return resources.ResourceTypeVideo
	case ".obj":
		return resources.ResourceTypeModel
	default:
		return resources.ResourceTypeNone
	}
}
