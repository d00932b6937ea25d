package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Template is a reusable prompt with {{field}} placeholders.
type Template struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	Fields    []string  `json:"fields"`
}

var fieldPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ExtractFields returns the placeholder names from a template body, unique
// and in order of first appearance.
func ExtractFields(body string) []string {
	seen := make(map[string]struct{})
	fields := []string{}
	for _, match := range fieldPattern.FindAllStringSubmatch(body, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		fields = append(fields, name)
	}
	return fields
}

// TemplateStore keeps one JSON file per template under a directory.
type TemplateStore struct {
	mu  sync.Mutex
	dir string
}

// NewTemplateStore creates the backing directory if needed.
func NewTemplateStore(dir string) (*TemplateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create templates dir: %w", err)
	}
	return &TemplateStore{dir: dir}, nil
}

func (s *TemplateStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Create stores a new template, deriving its field list from the body.
func (s *TemplateStore) Create(name, body string) (*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	tpl := &Template{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      name,
		Body:      body,
		Fields:    ExtractFields(body),
	}
	if err := writeJSON(s.path(tpl.ID), tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// Get loads a template by id.
func (s *TemplateStore) Get(id string) (*Template, error) {
	if err := safeID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

func (s *TemplateStore) load(id string) (*Template, error) {
	var tpl Template
	if err := readJSON(s.path(id), &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Update replaces a template's name and body, recomputing its fields.
func (s *TemplateStore) Update(id, name, body string) (*Template, error) {
	if err := safeID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, err := s.load(id)
	if err != nil {
		return nil, err
	}
	tpl.Name = name
	tpl.Body = body
	tpl.Fields = ExtractFields(body)
	tpl.UpdatedAt = time.Now().UTC()
	if err := writeJSON(s.path(id), tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// Delete removes a template. Deleting an unknown id returns ErrNotFound.
func (s *TemplateStore) Delete(id string) error {
	if err := safeID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}

// List returns all templates, most recently updated first.
func (s *TemplateStore) List() ([]*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list templates: %w", err)
	}
	templates := make([]*Template, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		tpl, err := s.load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		templates = append(templates, tpl)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].UpdatedAt.After(templates[j].UpdatedAt)
	})
	return templates, nil
}
