package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of a task import file.
type ImportSchema struct {
	Defaults *DefaultsImport `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Tasks    []TaskImport    `json:"tasks" yaml:"tasks"`
}

// DefaultsImport holds values applied to every task that leaves them empty.
type DefaultsImport struct {
	Priority string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// TaskImport is one task in the import file. Recurring tasks are imported as
// roots; their instances are generated on import.
type TaskImport struct {
	Title       string `json:"title" yaml:"title" validate:"required,max=255"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" validate:"max=4000"`
	DueDate     string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Recurrence  string `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
	Priority    string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
}

// LoadImportSchema reads and parses an import file. Files ending in .yaml or
// .yml are parsed as YAML, everything else as JSON.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ParseImportSchema(data, ext == ".yaml" || ext == ".yml")
}

// ParseImportSchema decodes data as YAML when isYAML is set, JSON otherwise.
func ParseImportSchema(data []byte, isYAML bool) (*ImportSchema, error) {
	var schema ImportSchema
	var err error
	if isYAML {
		err = yaml.Unmarshal(data, &schema)
	} else {
		err = json.Unmarshal(data, &schema)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
