package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	scherr "github.com/adalundhe/scholar/core/errors"
)

// Store loads agent profiles from a directory of YAML files, one profile
// per file, keyed by file stem. Profiles are cached for the lifetime of the
// run; configuration is not expected to change mid-run, so there is no
// invalidation.
type Store struct {
	dir      string
	mu       sync.RWMutex
	profiles map[string]*AgentProfile
	logger   *slog.Logger
}

// NewStore creates a profile store rooted at dir. Nothing is read until
// LoadAll or Get.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:      dir,
		profiles: make(map[string]*AgentProfile),
		logger:   logger,
	}
}

// LoadAll reads every profile in the directory. Malformed profiles fail the
// load: configuration errors abort before any generation work.
func (s *Store) LoadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return scherr.Wrap(scherr.KindConfiguration,
			fmt.Sprintf("read profiles directory %s", s.dir), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		profile, err := s.readProfile(name)
		if err != nil {
			return err
		}
		s.profiles[name] = profile
		s.logger.Debug("loaded profile", "name", name, "role", profile.Role.Title)
	}

	return nil
}

// Get returns the named profile, loading it on first use.
func (s *Store) Get(name string) (*AgentProfile, error) {
	s.mu.RLock()
	profile, ok := s.profiles[name]
	s.mu.RUnlock()
	if ok {
		return profile, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if profile, ok := s.profiles[name]; ok {
		return profile, nil
	}

	profile, err := s.readProfile(name)
	if err != nil {
		return nil, err
	}
	s.profiles[name] = profile
	return profile, nil
}

// List returns the names of all available profiles, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, scherr.Wrap(scherr.KindConfiguration,
			fmt.Sprintf("read profiles directory %s", s.dir), err)
	}

	seen := make(map[string]struct{})
	s.mu.RLock()
	for name := range s.profiles {
		seen[name] = struct{}{}
	}
	s.mu.RUnlock()

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		seen[strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) readProfile(name string) (*AgentProfile, error) {
	path := s.profilePath(name)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, scherr.Newf(scherr.KindNotFound, "profile %q not found in %s", name, s.dir)
	}
	if err != nil {
		return nil, scherr.Wrap(scherr.KindConfiguration,
			fmt.Sprintf("read profile %q", name), err)
	}

	var profile AgentProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, scherr.Wrap(scherr.KindConfiguration,
			fmt.Sprintf("parse profile %q", name), err)
	}

	if problems := profile.Validate(); len(problems) > 0 {
		return nil, scherr.Newf(scherr.KindConfiguration,
			"profile %q invalid: %s", name, strings.Join(problems, "; "))
	}

	return &profile, nil
}

func (s *Store) profilePath(name string) string {
	yamlPath := filepath.Join(s.dir, name+".yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	return filepath.Join(s.dir, name+".yml")
}

func isYAML(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
