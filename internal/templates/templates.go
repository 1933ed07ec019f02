package templates

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"curator/internal/config"
	"curator/internal/services"
)

// Template is a user-defined organization rule: a base directory, a naming
// pattern, and optionally a closed set of permitted destination folders.
type Template struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	BasePath        string   `json:"basePath"`
	NamingPattern   string   `json:"namingPattern"`
	CaseStyle       string   `json:"caseStyle,omitempty"`
	AutoOrganize    bool     `json:"autoOrganize"`
	Watch           bool     `json:"watch"`
	FolderWhitelist []string `json:"folderWhitelist,omitempty"`
}

// Restricted reports whether the template confines placement to a whitelist.
func (t Template) Restricted() bool {
	return len(t.FolderWhitelist) > 0
}

// Validate checks the fields a template cannot function without.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("template name is required")
	}
	if strings.TrimSpace(t.BasePath) == "" {
		return errors.New("template base path is required")
	}
	if strings.TrimSpace(t.NamingPattern) == "" {
		return errors.New("template naming pattern is required")
	}
	return nil
}

// Store persists templates as an ordered JSON array. The file is meant to be
// hand-editable; an absent file bootstraps to an empty collection.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a template store rooted at the configured path.
func NewStore(cfg *config.Config) *Store {
	return &Store{path: cfg.TemplatesPath()}
}

// NewStoreAt creates a template store at an explicit path (used in tests).
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// List returns all templates in stored order.
func (s *Store) List() ([]Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the template with the given id.
func (s *Store) Get(id string) (Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return Template{}, err
	}
	for _, tpl := range all {
		if tpl.ID == id {
			return tpl, nil
		}
	}
	return Template{}, services.Wrap(services.ErrNotFound, "templates", "get", fmt.Sprintf("template %s", id), nil)
}

// Add appends a template, assigning an id when absent.
func (s *Store) Add(tpl Template) (Template, error) {
	if err := tpl.Validate(); err != nil {
		return Template{}, services.Wrap(services.ErrValidation, "templates", "add", err.Error(), nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return Template{}, err
	}
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	for _, existing := range all {
		if existing.ID == tpl.ID {
			return Template{}, services.Wrap(services.ErrValidation, "templates", "add", fmt.Sprintf("duplicate template id %s", tpl.ID), nil)
		}
	}
	all = append(all, tpl)
	if err := s.save(all); err != nil {
		return Template{}, err
	}
	return tpl, nil
}

// Update replaces the stored template with the same id.
func (s *Store) Update(tpl Template) error {
	if err := tpl.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "templates", "update", err.Error(), nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	for i, existing := range all {
		if existing.ID == tpl.ID {
			all[i] = tpl
			return s.save(all)
		}
	}
	return services.Wrap(services.ErrNotFound, "templates", "update", fmt.Sprintf("template %s", tpl.ID), nil)
}

// Delete removes the template with the given id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	for i, existing := range all {
		if existing.ID == id {
			all = append(all[:i], all[i+1:]...)
			return s.save(all)
		}
	}
	return services.Wrap(services.ErrNotFound, "templates", "delete", fmt.Sprintf("template %s", id), nil)
}

// Watched returns the templates flagged for daemon watching.
func (s *Store) Watched() ([]Template, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	watched := make([]Template, 0, len(all))
	for _, tpl := range all {
		if tpl.Watch {
			watched = append(watched, tpl)
		}
	}
	return watched, nil
}

func (s *Store) load() ([]Template, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "templates", "load", "read template store", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var all []Template
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, services.Wrap(services.ErrStorage, "templates", "load", "parse template store", err)
	}
	return all, nil
}

func (s *Store) save(all []Template) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "templates", "save", "create config directory", err)
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrStorage, "templates", "save", "encode templates", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "templates", "save", "write template store", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return services.Wrap(services.ErrStorage, "templates", "save", "replace template store", err)
	}
	return nil
}
