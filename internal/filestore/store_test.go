package filestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func create(t *testing.T, s *Store, tasks ...*domain.Task) {
	t.Helper()
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, r repository.TaskRepo) error {
		for _, task := range tasks {
			if err := r.Create(ctx, task); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/data/tasks.json", "")
	tasks, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStore_RoundTrip(t *testing.T) {
	for _, path := range []string{"/data/tasks.json", "/data/tasks.yaml"} {
		t.Run(path, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			s := New(fs, path, "")

			anchor := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
			root := testutil.NewTestRoot("Invoice", anchor, domain.RecurrenceMonthly,
				testutil.WithDescription("send to accounting"),
				testutil.WithCategory(domain.CategoryDocument))
			inst := testutil.NewTestInstance(root.ID, time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC))
			create(t, s, root, inst)

			reopened := New(fs, path, "")
			tasks, err := reopened.Load()
			require.NoError(t, err)
			require.Len(t, tasks, 2)

			got := tasks[0]
			assert.Equal(t, root.ID, got.ID)
			assert.Equal(t, "send to accounting", got.Description)
			assert.Equal(t, domain.CategoryDocument, got.Category)
			assert.Equal(t, domain.RecurrenceMonthly, got.Recurrence)
			assert.True(t, got.IsRecurring)
			require.NotNil(t, got.DueDate)
			assert.True(t, anchor.Equal(*got.DueDate))

			assert.Equal(t, root.ID, tasks[1].Parent())
		})
	}
}

func TestStore_FailedTxLeavesFileUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/data/tasks.json", FormatJSON)
	keep := testutil.NewTestTask("Keep me")
	create(t, s, keep)

	before, err := afero.ReadFile(fs, "/data/tasks.json")
	require.NoError(t, err)

	err = s.WithinTx(context.Background(), func(ctx context.Context, r repository.TaskRepo) error {
		if err := r.Delete(ctx, keep.ID); err != nil {
			return err
		}
		return errors.New("store write failed")
	})
	require.Error(t, err)

	after, err := afero.ReadFile(fs, "/data/tasks.json")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_WriteFailureSurfaces(t *testing.T) {
	base := afero.NewMemMapFs()
	seed := New(base, "/data/tasks.json", FormatJSON)
	create(t, seed, testutil.NewTestTask("Existing"))

	s := New(afero.NewReadOnlyFs(base), "/data/tasks.json", FormatJSON)
	err := s.WithinTx(context.Background(), func(ctx context.Context, r repository.TaskRepo) error {
		return r.Create(ctx, testutil.NewTestTask("New"))
	})
	require.Error(t, err)

	tasks, err := seed.Load()
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/data/tasks.yaml", "")
	create(t, s, testutil.NewTestTask("One"))
	create(t, s, testutil.NewTestTask("Two"))

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tasks.yaml", entries[0].Name())
}

func TestStore_CorruptDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/tasks.json", []byte("{not json"), 0o644))

	_, err := New(fs, "/data/tasks.json", "").Load()
	assert.Error(t, err)
}

func TestStore_RejectsNewerVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/tasks.yaml", []byte("version: 99\ntasks: []\n"), 0o644))

	_, err := New(fs, "/data/tasks.yaml", "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("toml")
	assert.Error(t, err)

	assert.Equal(t, FormatJSON, FormatForPath("/x/tasks"))
	assert.Equal(t, FormatYAML, FormatForPath("/x/tasks.YAML"))
}

func TestStore_ReadOnlyTxDoesNotRewrite(t *testing.T) {
	base := afero.NewMemMapFs()
	create(t, New(base, "/data/tasks.json", ""), testutil.NewTestTask("Existing"))

	s := New(afero.NewReadOnlyFs(base), "/data/tasks.json", "")
	err := s.WithinTx(context.Background(), func(ctx context.Context, r repository.TaskRepo) error {
		_, err := r.List(ctx, repository.TaskFilter{})
		return err
	})
	assert.NoError(t, err)
}
