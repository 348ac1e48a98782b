package schema

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Cache holds the field-group definitions loaded from the schemas
// directory, keyed by group id. Groups are reloaded with Run so schema
// edits between batches are picked up without a restart.
type Cache struct {
	schemasDir string
	cache      map[string]*Group
	mu         sync.RWMutex
}

func NewCache(schemasDir string) *Cache {
	return &Cache{
		schemasDir: schemasDir,
		cache:      make(map[string]*Group),
	}
}

func (c *Cache) Run() error {
	if _, err := os.Stat(c.schemasDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.schemasDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}
	yamlFiles, err := filepath.Glob(filepath.Join(c.schemasDir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to find YAML files: %w", err)
	}
	files = append(files, yamlFiles...)

	for _, file := range files {
		group, err := c.loadFile(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		c.mu.Lock()
		c.cache[group.Group.ID] = group
		c.mu.Unlock()

		slog.Debug("Schema loaded", "group", group.Group.ID, "fields", len(group.Fields))
	}

	return nil
}

func (c *Cache) loadFile(path string) (*Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var group Group
	if err := yaml.Unmarshal(data, &group); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate(&group); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &group, nil
}

func (c *Cache) GetGroup(id string) (*Group, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	group, ok := c.cache[id]
	if !ok {
		return nil, fmt.Errorf("field group '%s' not found", id)
	}
	return group, nil
}

func (c *Cache) GetGroupCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func validate(group *Group) error {
	if group.Group.ID == "" {
		return fmt.Errorf("group id is required")
	}
	return validateFields(group.Fields, group.Group.ID)
}

func validateFields(fields []Field, path string) error {
	if len(fields) == 0 {
		return fmt.Errorf("%s: at least one field is required", path)
	}

	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("%s: field name is required", path)
		}
		if !validTypes[f.Type] {
			return fmt.Errorf("%s.%s: unknown field type '%s'", path, f.Name, f.Type)
		}
		if f.Type == TypeGroup || f.Type == TypeRepeater {
			if err := validateFields(f.Fields, path+"."+f.Name); err != nil {
				return err
			}
		}
	}

	return nil
}
