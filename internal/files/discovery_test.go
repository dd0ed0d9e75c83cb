package files

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "psconvert/internal/errors"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("V,µA\n"), 0644))
	}
}

func names(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestFindCSVFiles(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{name: "only csv", files: []string{"b.csv", "a.csv"}, want: []string{"a.csv", "b.csv"}},
		{name: "mixed types", files: []string{"run.csv", "run.xlsx", "notes.txt", "RUN2.CSV"}, want: []string{"RUN2.CSV", "run.csv"}},
		{name: "nested directories ignored", files: []string{"top.csv", "sub/inner.csv"}, want: []string{"top.csv"}},
		{name: "empty", files: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, tt.files...)

			found, err := NewDiscovery(dir).FindCSVFiles(".")
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(found))
		})
	}
}

func TestFindCSVFiles_MissingDirectory(t *testing.T) {
	_, err := NewDiscovery("").FindCSVFiles(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
}

func TestFindFilesByPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "run1.csv", "run2.csv", "other.csv", "run3.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "run4.csv"), 0755))

	found, err := NewDiscovery(dir).FindFilesByPattern("run*.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"run1.csv", "run2.csv"}, names(found))

	_, err = NewDiscovery(dir).FindFilesByPattern("[")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "batch/b.csv", "batch/a.csv", "single.csv", "glob/x1.csv", "glob/x2.csv")

	d := NewDiscovery(dir)
	found, err := d.Expand([]string{
		"single.csv",
		"batch",
		"glob/x*.csv",
		"batch/a.csv",
		"missing.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "single.csv"),
		filepath.Join(dir, "batch", "a.csv"),
		filepath.Join(dir, "batch", "b.csv"),
		filepath.Join(dir, "glob", "x1.csv"),
		filepath.Join(dir, "glob", "x2.csv"),
		filepath.Join(dir, "missing.csv"),
	}, Paths(found))
	assert.Positive(t, found[0].Size)
	assert.Zero(t, found[len(found)-1].Size)
}

func TestExpand_PatternWithoutMatches(t *testing.T) {
	_, err := NewDiscovery(t.TempDir()).Expand([]string{"*.csv"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))
}

func TestEnsureOutputDir(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	dir := filepath.Join(t.TempDir(), "nested", "out")

	require.NoError(t, EnsureOutputDir(logger, dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be removed")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	err = EnsureOutputDir(logger, filepath.Join(blocker, "out"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
}
