package filestore

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"gopkg.in/yaml.v3"
)

// Format selects the on-disk encoding of the task document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// documentVersion is bumped when the record layout changes incompatibly.
const documentVersion = 1

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown store format %q (expected json or yaml)", s)
	}
}

// FormatForPath infers the format from the file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type document struct {
	Version int          `json:"version" yaml:"version"`
	Tasks   []taskRecord `json:"tasks" yaml:"tasks"`
}

// taskRecord is the serialized form of a task. Timestamps are RFC3339 in UTC,
// the same representation the SQLite backend stores.
type taskRecord struct {
	ID           string `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	DueDate      string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Status       string `json:"status" yaml:"status"`
	Priority     string `json:"priority" yaml:"priority"`
	Category     string `json:"category" yaml:"category"`
	Completed    bool   `json:"completed" yaml:"completed"`
	CompletedAt  string `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Recurrence   string `json:"recurrence" yaml:"recurrence"`
	IsRecurring  bool   `json:"is_recurring" yaml:"is_recurring"`
	ParentTaskID string `json:"parent_task_id,omitempty" yaml:"parent_task_id,omitempty"`
	CreatedAt    string `json:"created_at" yaml:"created_at"`
	UpdatedAt    string `json:"updated_at" yaml:"updated_at"`
}

func toRecord(t *domain.Task) taskRecord {
	return taskRecord{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		DueDate:      formatOptional(t.DueDate),
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		Category:     string(t.Category),
		Completed:    t.Completed,
		CompletedAt:  formatOptional(t.CompletedAt),
		Recurrence:   string(t.Recurrence),
		IsRecurring:  t.IsRecurring,
		ParentTaskID: t.Parent(),
		CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (r taskRecord) toTask() (*domain.Task, error) {
	t := &domain.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.TaskStatus(r.Status),
		Priority:    domain.Priority(r.Priority),
		Category:    domain.Category(r.Category),
		Completed:   r.Completed,
		Recurrence:  domain.RecurrenceType(r.Recurrence),
		IsRecurring: r.IsRecurring,
	}
	var err error
	if t.DueDate, err = parseOptional(r.DueDate); err != nil {
		return nil, fmt.Errorf("task %s due_date: %w", r.ID, err)
	}
	if t.CompletedAt, err = parseOptional(r.CompletedAt); err != nil {
		return nil, fmt.Errorf("task %s completed_at: %w", r.ID, err)
	}
	if r.ParentTaskID != "" {
		p := r.ParentTaskID
		t.ParentTaskID = &p
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339, r.CreatedAt); err != nil {
		return nil, fmt.Errorf("task %s created_at: %w", r.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339, r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("task %s updated_at: %w", r.ID, err)
	}
	return t, nil
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseOptional(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encode(f Format, doc document) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

func decode(f Format, data []byte) (document, error) {
	var doc document
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return document{}, err
	}
	if doc.Version > documentVersion {
		return document{}, fmt.Errorf("document version %d is newer than supported version %d", doc.Version, documentVersion)
	}
	return doc, nil
}
