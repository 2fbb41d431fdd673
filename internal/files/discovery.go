package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds readings files on disk.
type Discovery struct {
	preferred string
	logger    *slog.Logger
}

// NewDiscovery creates a discovery that picks preferred, a bare file name,
// over any other readings file in a directory.
func NewDiscovery(preferred string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		preferred: preferred,
		logger:    logger.With(slog.String("component", "discovery")),
	}
}

// IsReadingsFile reports whether name looks like a workbook or CSV export.
// Excel lock files (~$name.xlsx) and hidden files are excluded.
func IsReadingsFile(name string) bool {
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// FindReadingsFiles lists the readings files directly inside dir, oldest
// first.
func (d *Discovery) FindReadingsFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsReadingsFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// ResolveInput turns the configured input into a file path. A file path is
// returned unchanged, missing paths included, so the caller reports them.
// For a directory the preferred name wins, then the most recently modified
// readings file.
func (d *Discovery) ResolveInput(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, nil
	}

	files, err := d.FindReadingsFiles(path)
	if err != nil {
		return "", apperrors.NewInputError("failed to scan input directory", err).
			WithContext("dir", path)
	}

	var chosen FileInfo
	var found bool
	for _, f := range files {
		if d.preferred != "" && strings.EqualFold(f.Name, d.preferred) {
			chosen, found = f, true
			break
		}
	}
	if !found {
		chosen, found = GetLatestFile(files)
	}
	if !found {
		return "", apperrors.NewInputError(
			fmt.Sprintf("no .xlsx or .csv readings file in %s", path),
			apperrors.ErrEmptyDataset).WithContext("dir", path)
	}

	d.logger.Info("Readings file discovered",
		slog.String("dir", path),
		slog.String("file", chosen.Name),
		slog.Int("candidates", len(files)),
		slog.Time("modified", chosen.ModTime))
	return chosen.Path, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}
