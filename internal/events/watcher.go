package events

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const debounceDelay = 100 * time.Millisecond

// pendingChange is one debounced notification. Identity, not the timer,
// tells a superseded callback apart from the current one.
type pendingChange struct {
	timer *time.Timer
}

// FileWatcher calls onChange when a watched event file is written or
// recreated. Bursts of writes within debounceDelay collapse into one call.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]time.Time
	onChange func(string)
	log      zerolog.Logger
	mu       sync.Mutex
	debounce map[string]*pendingChange
	done     chan struct{}
	once     sync.Once
}

func NewFileWatcher(log zerolog.Logger, onChange func(string)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		files:    make(map[string]time.Time),
		onChange: onChange,
		log:      log,
		debounce: make(map[string]*pendingChange),
		done:     make(chan struct{}),
	}

	go fw.watch()
	return fw, nil
}

// AddFile starts watching path. Editors often replace files rather than
// writing in place, so the parent directory is watched and events are
// filtered by name.
func (fw *FileWatcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, exists := fw.files[absPath]; exists {
		return nil // Already watching
	}

	if err := fw.watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	fw.files[absPath] = time.Now()
	return nil
}

// Watching reports whether path is being watched.
func (fw *FileWatcher) Watching(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	_, ok := fw.files[absPath]
	return ok
}

func (fw *FileWatcher) watch() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fw.schedule(event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue watching
			fw.log.Warn().Err(err).Msg("file watcher error")

		case <-fw.done:
			return
		}
	}
}

func (fw *FileWatcher) schedule(name string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, watching := fw.files[name]; !watching {
		return
	}

	// Debounce rapid events
	if pending, exists := fw.debounce[name]; exists {
		pending.timer.Stop()
	}

	pending := &pendingChange{}
	pending.timer = time.AfterFunc(debounceDelay, func() {
		fw.fire(name, pending)
	})
	fw.debounce[name] = pending
}

// fire delivers a debounced change. A callback whose timer was replaced
// after it started running does nothing; the replacement reports instead.
func (fw *FileWatcher) fire(name string, pending *pendingChange) {
	fw.mu.Lock()
	if fw.debounce[name] != pending {
		fw.mu.Unlock()
		return
	}
	delete(fw.debounce, name)
	fw.mu.Unlock()

	select {
	case <-fw.done:
		return
	default:
	}

	fw.log.Debug().Str("file", name).Msg("event file changed")
	if fw.onChange != nil {
		fw.onChange(name)
	}
}

// Close stops watching. Pending debounced callbacks are dropped.
func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)

		fw.mu.Lock()
		for name, pending := range fw.debounce {
			pending.timer.Stop()
			delete(fw.debounce, name)
		}
		fw.mu.Unlock()

		err = fw.watcher.Close()
	})
	return err
}
