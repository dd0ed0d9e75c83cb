package files

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "psconvert/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath   string
	extensions []string
}

// NewDiscovery creates a discovery resolving relative inputs against
// basePath (the working directory when empty). Directories yield .csv files.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath, extensions: []string{".csv"}}
}

func (d *Discovery) resolve(path string) string {
	if d.basePath == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(d.basePath, path)
}

func (d *Discovery) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range d.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// FindCSVFiles finds all CSV files in dir, sorted by name.
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read directory", err).
			WithContext("directory", fullPath)
	}

	var found []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !d.matches(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})
	return found, nil
}

// FindFilesByPattern finds regular files matching a glob pattern.
func (d *Discovery) FindFilesByPattern(pattern string) ([]FileInfo, error) {
	matches, err := filepath.Glob(d.resolve(pattern))
	if err != nil {
		return nil, apperrors.NewAppValidationError("invalid file pattern").
			WithContext("pattern", pattern)
	}

	var found []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		found = append(found, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return found, nil
}

// Expand turns inputs into the list of files to process, keeping the order
// of the inputs and dropping duplicates. A pattern that matches nothing is
// a NotFound error.
func (d *Discovery) Expand(inputs []string) ([]FileInfo, error) {
	seen := make(map[string]bool)
	var out []FileInfo
	add := func(fi FileInfo) {
		key := filepath.Clean(fi.Path)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, fi)
	}

	for _, input := range inputs {
		if isPattern(input) {
			found, err := d.FindFilesByPattern(input)
			if err != nil {
				return nil, err
			}
			if len(found) == 0 {
				return nil, apperrors.NewNotFoundError("files matching " + input)
			}
			for _, fi := range found {
				add(fi)
			}
			continue
		}

		path := d.resolve(input)
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			found, err := d.FindCSVFiles(input)
			if err != nil {
				return nil, err
			}
			for _, fi := range found {
				add(fi)
			}
			continue
		}

		fi := FileInfo{Path: path, Name: filepath.Base(path)}
		if err == nil {
			fi.Size = info.Size()
			fi.ModTime = info.ModTime()
		}
		add(fi)
	}
	return out, nil
}

// Paths returns the paths of files.
func Paths(files []FileInfo) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func isPattern(path string) bool {
	return strings.ContainsAny(path, "*?[")
}
