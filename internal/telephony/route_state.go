package telephony

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"
)

type routeStateFile struct {
	Enabled   bool      `yaml:"enabled"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}

// RouteState remembers whether calls go to the AI voice agent. It is
// persisted as a small YAML file; a missing file means enabled.
type RouteState struct {
	mu      sync.RWMutex
	path    string
	enabled bool
	now     func() time.Time
}

func LoadRouteState(path string) (*RouteState, error) {
	s := &RouteState{path: path, enabled: true, now: time.Now}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading route state: %w", err)
	}

	var f routeStateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing route state: %w", err)
	}
	s.enabled = f.Enabled
	return s, nil
}

func (s *RouteState) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Set records the new state. The in-memory value always changes; the
// returned error only reports a failed write to disk.
func (s *RouteState) Set(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = enabled
	if s.path != "" {
		data, err := yaml.Marshal(routeStateFile{Enabled: enabled, UpdatedAt: s.now().UTC()})
		if err != nil {
			return fmt.Errorf("encoding route state: %w", err)
		}

		tmp, err := os.CreateTemp(filepath.Dir(s.path), ".route-state-*")
		if err != nil {
			return fmt.Errorf("writing route state: %w", err)
		}
		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("writing route state: %w", err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return fmt.Errorf("writing route state: %w", err)
		}
		if err := os.Rename(tmp.Name(), s.path); err != nil {
			os.Remove(tmp.Name())
			return fmt.Errorf("writing route state: %w", err)
		}
	}
	return nil
}
