// Package persona manages the named voice configurations a chat turn can
// be generated with.
package persona

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Voice selects how the generator speaks.
const (
	// VoiceFigure answers in the first person as the named figure.
	VoiceFigure = "figure"
	// VoiceNeutral answers as a neutral analyst summarizing the evidence.
	VoiceNeutral = "neutral"
)

// DefaultFallback is uttered when the supplied evidence is silent on the
// question and no persona overrides it.
const DefaultFallback = "I haven't discussed that topic in detail in my videos yet."

// Persona is one voice configuration.
type Persona struct {
	// Name is the registry key, also used in API requests.
	Name string `yaml:"name"`
	// DisplayName is the figure the generator speaks as when the voice
	// is "figure".
	DisplayName string `yaml:"display_name"`
	Voice       string `yaml:"voice"`
	Description string `yaml:"description"`
	// Fallback replaces DefaultFallback when set.
	Fallback string `yaml:"fallback"`
}

// FallbackUtterance returns the sentence the generator must use when the
// evidence does not cover the question.
func (p *Persona) FallbackUtterance() string {
	if p.Fallback != "" {
		return p.Fallback
	}
	return DefaultFallback
}

// Neutral is the stance used when no persona is selected.
func Neutral() *Persona {
	return &Persona{
		Name:        "",
		DisplayName: "a neutral analyst",
		Voice:       VoiceNeutral,
	}
}

// Registry holds the personas loaded from a directory of YAML files and
// keeps them current as the files change.
type Registry struct {
	dir string

	mu       sync.RWMutex
	personas map[string]*Persona

	watcher *fsnotify.Watcher
}

// NewRegistry loads every persona file in dir. A missing or empty
// directory yields an empty registry; the neutral stance is always
// available.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{
		dir:      dir,
		personas: make(map[string]*Persona),
	}
	if dir == "" {
		return r, nil
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the persona by name. An empty name or an unknown name
// resolves to the neutral stance, with ok reporting whether the name
// was known.
func (r *Registry) Get(name string) (*Persona, bool) {
	if name == "" {
		return Neutral(), true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.personas[name]; ok {
		return p, true
	}
	return Neutral(), false
}

// List returns the loaded personas sorted by name.
func (r *Registry) List() []*Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Persona, 0, len(r.personas))
	for _, p := range r.personas {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Watch reloads the registry whenever a persona file is created, changed
// or removed. It returns after the watcher is installed; reloading stops
// when ctx is done.
func (r *Registry) Watch(ctx context.Context) error {
	if r.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return err
	}
	r.watcher = watcher

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isPersonaFile(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := r.reload(); err != nil {
					slog.Warn("persona reload failed",
						slog.String("dir", r.dir),
						slog.String("error", err.Error()))
					continue
				}
				slog.Info("personas reloaded", slog.String("trigger", filepath.Base(event.Name)))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("persona watcher error", slog.String("error", err.Error()))
			}
		}
	}()

	return nil
}

func (r *Registry) reload() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.mu.Lock()
			r.personas = make(map[string]*Persona)
			r.mu.Unlock()
			return nil
		}
		return err
	}

	loaded := make(map[string]*Persona)
	for _, entry := range entries {
		if entry.IsDir() || !isPersonaFile(entry.Name()) {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		p, err := loadFile(path)
		if err != nil {
			slog.Warn("skipping invalid persona file",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		loaded[p.Name] = p
	}

	r.mu.Lock()
	r.personas = loaded
	r.mu.Unlock()
	return nil
}

func loadFile(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if p.Voice == "" {
		p.Voice = VoiceNeutral
	}
	return &p, nil
}

func isPersonaFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
