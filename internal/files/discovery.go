package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Extensions recognized as datasets
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
	ExtXLSM = ".xlsm"
	ExtXLS  = ".xls"
)

var dataExtensions = map[string]bool{
	ExtCSV:  true,
	ExtXLSX: true,
	ExtXLSM: true,
	ExtXLS:  true,
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// BasePath returns the data root
func (d *Discovery) BasePath() string {
	return d.basePath
}

// Path joins name onto the data root
func (d *Discovery) Path(name string) string {
	return filepath.Join(d.basePath, name)
}

// Extension returns the lower-cased extension of name, including the dot
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsDataFile reports whether name carries a dataset extension
func IsDataFile(name string) bool {
	return dataExtensions[Extension(name)]
}

// Stat returns information about a regular file directly inside the data root.
// Names that escape the root are reported as absent.
func (d *Discovery) Stat(name string) (FileInfo, bool) {
	if name == "" || !filepath.IsLocal(name) {
		return FileInfo{}, false
	}
	path := d.Path(name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return FileInfo{}, false
	}
	return FileInfo{Path: path, Name: filepath.Base(name), Size: info.Size(), ModTime: info.ModTime()}, true
}

// ListDataFiles lists every dataset file in the data root in lexical order
func (d *Discovery) ListDataFiles() ([]FileInfo, error) {
	return d.find(IsDataFile)
}

func (d *Discovery) find(match func(name string) bool) ([]FileInfo, error) {
	entries, err := os.ReadDir(d.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.basePath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.basePath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// Names returns the file names of infos
func Names(infos []FileInfo) []string {
	names := make([]string, len(infos))
	for i, f := range infos {
		names[i] = f.Name
	}
	return names
}
