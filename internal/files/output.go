package files

import (
	"log/slog"
	"os"
	"path/filepath"

	apperrors "psconvert/internal/errors"
)

// EnsureOutputDir creates dir if needed and checks that it is writable.
func EnsureOutputDir(logger *slog.Logger, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory", err).
			WithContext("directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("output directory is not writable", err).
			WithContext("directory", dir)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	logger.Debug("Output directory validated", slog.String("directory", filepath.Clean(dir)))
	return nil
}
