package effects

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File describes an effect file found on disk.
type File struct {
	FileName    string `json:"fileName"`
	DisplayName string `json:"displayName"`
	Path        string `json:"path"`
}

// Scan walks dir and returns every decodable effect file, sorted by path.
func Scan(dir string) ([]File, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("effects directory does not exist: %s", dir)
	}

	var files []File
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !IsSupported(path) {
			return nil
		}

		name := info.Name()
		files = append(files, File{
			FileName:    name,
			DisplayName: strings.TrimSuffix(name, filepath.Ext(name)),
			Path:        path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
