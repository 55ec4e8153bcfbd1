package ingestion

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var allowedExt = []string{".pdf", ".txt", ".md", ".png", ".jpg", ".jpeg"}

// LoadLocalFiles lists indexable files under root. A root that is itself a
// file is returned as the only entry.
func LoadLocalFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if slices.Contains(allowedExt, strings.ToLower(filepath.Ext(path))) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
