package eventconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"example.com/backstage/analytics/domain"
)

// Lookup resolves the analytics configuration of an event type
type Lookup interface {
	Lookup(eventType domain.EventType) (*EventConfig, bool)
}

// Registry holds the event types enabled for analytics
type Registry struct {
	mu      sync.RWMutex
	configs map[domain.EventType]*EventConfig
}

// NewRegistry creates a registry from the given configurations
func NewRegistry(configs ...EventConfig) (*Registry, error) {
	r := &Registry{configs: make(map[domain.EventType]*EventConfig)}
	for _, cfg := range configs {
		if err := r.Register(cfg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces the configuration of an event type
func (r *Registry) Register(cfg EventConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.flatten()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.ID] = &cfg
	return nil
}

// Lookup returns the configuration of an event type
func (r *Registry) Lookup(eventType domain.EventType) (*EventConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[eventType]
	return cfg, ok
}

// EventTypes returns the registered event types, sorted
func (r *Registry) EventTypes() []domain.EventType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]domain.EventType, 0, len(r.configs))
	for t := range r.configs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// LoadDir reads every .yaml/.yml file in dir as one event configuration
func LoadDir(dir string) ([]EventConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read event config directory: %w", err)
	}

	var configs []EventConfig
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read event config %s: %w", path, err)
		}
		var cfg EventConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse event config %s: %w", path, err)
		}
		log.Info().Str("event_type", string(cfg.ID)).Str("file", path).Msg("Loaded event config")
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Load builds the registry from dir, or from the built-in defaults when dir is empty
func Load(dir string) (*Registry, error) {
	if dir == "" {
		return NewRegistry(Defaults()...)
	}
	configs, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return NewRegistry(configs...)
}
