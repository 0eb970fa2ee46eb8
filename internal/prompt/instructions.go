package prompt

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"aitrader/internal/logger"
)

// Manager owns the standing instructions document handed to the reasoning
// engine. The file is created once with defaults and never overwritten, so
// operator edits survive restarts; a watcher picks edits up for the next
// session.
type Manager struct {
	path string

	mu   sync.RWMutex
	text string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path, done: make(chan struct{})}
	if err := m.ensureFile(); err != nil {
		return nil, err
	}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) Path() string { return m.path }

// Text returns the current instructions content.
func (m *Manager) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text
}

func (m *Manager) ensureFile() error {
	if _, err := os.Stat(m.path); err == nil {
		logger.Infof("instructions: using existing %s", m.path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(m.path, []byte(defaultInstructions), 0o644); err != nil {
		return err
	}
	logger.Infof("instructions: created default %s", m.path)
	return nil
}

func (m *Manager) reload() error {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.text = string(raw)
	m.mu.Unlock()
	return nil
}

// Watch reloads the instructions whenever the file changes. Editors that
// replace the file are handled by re-adding the watch on Remove/Rename.
func (m *Manager) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(m.path)); err != nil {
		w.Close()
		return err
	}
	m.watcher = w
	go m.loop()
	return nil
}

func (m *Manager) loop() {
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(m.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := m.reload(); err != nil {
				logger.Warnf("instructions: reload failed: %v", err)
				continue
			}
			logger.Infof("instructions: reloaded %s", m.path)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("instructions: watcher error: %v", err)
		}
	}
}

func (m *Manager) Close() {
	close(m.done)
	if m.watcher != nil {
		m.watcher.Close()
	}
}
