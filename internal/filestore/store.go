// Package filestore keeps every task in a single JSON or YAML document. It is
// the local-device backend: small, human-readable, and safe to copy around.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/spf13/afero"
)

// Store implements repository.TaskUnitOfWork over one document file.
//
// Each transaction loads the document into a repository.MemoryTaskRepo, runs
// the callback, and, if it wrote anything, saves the result through a temp
// file and rename.
// A failing callback leaves the file untouched. Transactions are serialized
// by a mutex; the Store does not coordinate with other processes.
type Store struct {
	fs     afero.Fs
	path   string
	format Format

	mu sync.Mutex
}

// New returns a Store for path on fs. An empty format is inferred from the
// file extension.
func New(fs afero.Fs, path string, format Format) *Store {
	if format == "" {
		format = FormatForPath(path)
	}
	return &Store{fs: fs, path: path, format: format}
}

// NewOs returns a Store on the operating system filesystem.
func NewOs(path string, format Format) *Store {
	return New(afero.NewOsFs(), path, format)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tasks repository.TaskRepo) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}
	repo := repository.NewMemoryTaskRepo(tasks...)
	if err := fn(ctx, repo); err != nil {
		return err
	}
	if repo.Writes() == 0 {
		return nil
	}
	return s.save(repo.Snapshot())
}

// Load returns every stored task without opening a transaction.
func (s *Store) Load() ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]*domain.Task, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("checking task file: %w", err)
	}
	if !exists {
		return nil, nil
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("reading task file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	doc, err := decode(s.format, data)
	if err != nil {
		return nil, fmt.Errorf("decoding task file %s: %w", s.path, err)
	}
	tasks := make([]*domain.Task, 0, len(doc.Tasks))
	for _, rec := range doc.Tasks {
		t, err := rec.toTask()
		if err != nil {
			return nil, fmt.Errorf("decoding task file %s: %w", s.path, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Store) save(tasks []*domain.Task) error {
	doc := document{Version: documentVersion, Tasks: make([]taskRecord, 0, len(tasks))}
	for _, t := range tasks {
		doc.Tasks = append(doc.Tasks, toRecord(t))
	}
	data, err := encode(s.format, doc)
	if err != nil {
		return fmt.Errorf("encoding task file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating task directory: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := s.fs.Chmod(tmpName, 0o644); err != nil && !os.IsNotExist(err) {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("replacing task file: %w", err)
	}
	return nil
}
