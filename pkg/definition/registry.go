package definition

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"
)

// Event names passed to the change callback.
const (
	EventCreate = "create"
	EventModify = "modify"
	EventRemove = "remove"
)

// Registry holds named specifications loaded from a directory of YAML files
// and keeps them current while watching the directory.
type Registry struct {
	mu       sync.RWMutex
	specs    map[string]*Specification
	files    map[string]string // path -> specification name
	dir      string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	onChange func(event string, spec *Specification)
	logger   *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for watch errors.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		specs:  make(map[string]*Specification),
		files:  make(map[string]string),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRegistryWithDirectory creates a registry and loads every specification
// found in dir.
func NewRegistryWithDirectory(dir string, opts ...RegistryOption) (*Registry, error) {
	r := NewRegistry(opts...)
	if err := r.LoadDirectory(dir); err != nil {
		return nil, err
	}
	return r, nil
}

// Register validates s and adds it under its name. A specification with the
// same name and version as a registered one is rejected.
func (r *Registry) Register(s *Specification) error {
	if s == nil {
		return fmt.Errorf("specification cannot be nil")
	}
	if err := Check(s); err != nil {
		return fmt.Errorf("invalid specification: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.specs[s.Name]; ok && existing.Version == s.Version {
		return fmt.Errorf("specification %q version %q already registered", s.Name, s.Version)
	}
	r.specs[s.Name] = s
	return nil
}

// Unregister removes a specification.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.specs[name]; !ok {
		return fmt.Errorf("specification %q not found", name)
	}
	delete(r.specs, name)
	for path, n := range r.files {
		if n == name {
			delete(r.files, path)
		}
	}
	return nil
}

// Get returns a specification by name.
func (r *Registry) Get(name string) (*Specification, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

// Names lists registered specifications, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered specifications.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specs)
}

// Clear removes all specifications.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = make(map[string]*Specification)
	r.files = make(map[string]string)
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// LoadDirectory loads all YAML files in dir. A missing directory loads
// nothing. Files that fail to load are reported together.
func (r *Registry) LoadDirectory(dir string) error {
	r.dir = dir

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var loadErrors []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", entry.Name(), err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("errors loading specifications: %s", strings.Join(loadErrors, "; "))
	}
	return nil
}

// LoadFile loads one specification file. Reloading a file replaces the
// specification it defined before.
func (r *Registry) LoadFile(path string) error {
	s, err := LoadFile(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if prev, ok := r.files[path]; ok {
		delete(r.specs, prev)
	}
	r.mu.Unlock()

	if err := r.Register(s); err != nil {
		return fmt.Errorf("registering specification: %w", err)
	}

	r.mu.Lock()
	r.files[path] = s.Name
	r.mu.Unlock()
	return nil
}

// Reload clears the registry and loads the configured directory again.
func (r *Registry) Reload() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for reload")
	}
	r.Clear()
	return r.LoadDirectory(r.dir)
}

// SetOnChange sets a callback run after a watched file is loaded or removed.
// The specification is nil for removals.
func (r *Registry) SetOnChange(fn func(event string, spec *Specification)) {
	r.onChange = fn
}

// Watch starts watching the configured directory for changes.
func (r *Registry) Watch() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching directory %s: %w", r.dir, err)
	}

	r.watcher = watcher
	r.stopChan = make(chan struct{})
	go r.watchLoop(watcher, r.stopChan)
	return nil
}

func (r *Registry) watchLoop(watcher *fsnotify.Watcher, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isYAML(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				r.handleFileChange(event.Name, EventCreate)
			case event.Op&fsnotify.Write == fsnotify.Write:
				r.handleFileChange(event.Name, EventModify)
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				r.handleFileRemove(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("specification watcher error", zap.Error(err))
		}
	}
}

func (r *Registry) handleFileChange(path, event string) {
	if err := r.LoadFile(path); err != nil {
		// the previous version stays registered
		r.logger.Warn("specification not reloaded", zap.String("path", path), zap.Error(err))
		return
	}

	r.mu.RLock()
	s, ok := r.specs[r.files[path]]
	r.mu.RUnlock()
	if !ok {
		return
	}

	r.logger.Info("specification loaded", zap.String("path", path), zap.String("event", event), zap.String("name", s.Name))
	if r.onChange != nil {
		r.onChange(event, s)
	}
}

func (r *Registry) handleFileRemove(path string) {
	r.mu.Lock()
	name, ok := r.files[path]
	if ok {
		delete(r.files, path)
		delete(r.specs, name)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	r.logger.Info("specification removed", zap.String("path", path), zap.String("name", name))
	if r.onChange != nil {
		r.onChange(EventRemove, nil)
	}
}

// StopWatch stops watching the directory.
func (r *Registry) StopWatch() {
	if r.stopChan != nil {
		close(r.stopChan)
		r.stopChan = nil
	}
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
}
