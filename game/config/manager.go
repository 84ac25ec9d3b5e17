package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/fps-arena-relay/game/room"
)

// DefaultName selects the built-in arena.
const DefaultName = "default"

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// ConfigInfo summarizes an arena file for listings.
type ConfigInfo struct {
	Filename      string `json:"filename"`
	ConfigID      string `json:"config_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	MaxHealth     int    `json:"max_health"`
	RespawnPoints int    `json:"respawn_points"`
}

// Manager handles arena loading and caching
type Manager struct {
	configDir string
	configs   map[string]*room.Rules
	mu        sync.RWMutex
}

// NewManager creates a manager over configDir. An empty configDir yields a
// manager that only knows the built-in arena.
func NewManager(configDir string) (*Manager, error) {
	if configDir != "" {
		info, err := os.Stat(configDir)
		if err != nil {
			return nil, fmt.Errorf("config directory does not exist: %s", configDir)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("config path is not a directory: %s", configDir)
		}
	}

	return &Manager{
		configDir: configDir,
		configs:   make(map[string]*room.Rules),
	}, nil
}

// Resolve returns the rules for name, falling back to the built-in arena for
// an empty name or "default" when no such file exists.
func (m *Manager) Resolve(name string) (room.Rules, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" {
		return room.DefaultRules(), nil
	}

	rules, err := m.LoadConfig(name)
	if err == nil {
		return *rules, nil
	}
	if name == DefaultName && errors.Is(err, ErrConfigNotFound) {
		return room.DefaultRules(), nil
	}
	return room.Rules{}, err
}

// LoadConfig loads an arena by name. Callers get their own copy and may
// modify it freely.
func (m *Manager) LoadConfig(name string) (*room.Rules, error) {
	name = strings.TrimSuffix(name, ".json")

	m.mu.RLock()
	if rules, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		cp := rules.Clone()
		return &cp, nil
	}
	m.mu.RUnlock()

	if m.configDir == "" || name == "" || strings.ContainsAny(name, `/\`) {
		return nil, ErrConfigNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if rules, exists := m.configs[name]; exists {
		cp := rules.Clone()
		return &cp, nil
	}

	data, err := os.ReadFile(filepath.Join(m.configDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rules room.Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := room.ValidateRules(&rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cached := rules.Clone()
	m.configs[name] = &cached
	log.Debug().Str("config", name).Str("arena", rules.Name).Msg("Loaded arena config")
	return &rules, nil
}

// ListConfigs returns information about all loadable arenas
func (m *Manager) ListConfigs() ([]ConfigInfo, error) {
	if m.configDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []ConfigInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		rules, err := m.LoadConfig(name)
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping invalid arena config")
			continue
		}

		configs = append(configs, ConfigInfo{
			Filename:      entry.Name(),
			ConfigID:      name,
			Name:          rules.Name,
			Description:   rules.Description,
			MaxHealth:     rules.MaxHealth,
			RespawnPoints: len(rules.RespawnPoints),
		})
	}

	return configs, nil
}

// SaveConfig validates rules and writes them to <configDir>/<name>.json
func (m *Manager) SaveConfig(name string, rules *room.Rules) error {
	if m.configDir == "" {
		return errors.New("no config directory configured")
	}
	if err := room.ValidateRules(rules); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	name = strings.TrimSuffix(name, ".json")
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.configDir, name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	cp := rules.Clone()
	m.configs[name] = &cp
	m.mu.Unlock()

	return nil
}

// RefreshCache drops every cached arena so the next load rereads disk.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = make(map[string]*room.Rules)
}
