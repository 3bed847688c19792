package harness

import (
	"os"
	"path/filepath"
	"sort"
)

// Discover lists the test files of one category.
//
// Subdirectories, and symlinks to directories, are skipped. Other
// symlinks, dangling ones included, are tests. With sorted set, cases are ordered by file
// name; otherwise they keep the order the directory listing returned.
func Discover(root string, c Category, sorted bool) ([]TestCase, error) {
	dir := filepath.Join(root, c.Name)

	f, err := os.Open(dir)
	if err != nil {
		return nil, &DiscoveryError{Category: c.Name, Path: dir, Err: err}
	}
	defer f.Close()

	// File.ReadDir does not sort, unlike os.ReadDir.
	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, &DiscoveryError{Category: c.Name, Path: dir, Err: err}
	}

	cases := make([]TestCase, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if isDir(dir, entry) {
			continue
		}
		cases = append(cases, TestCase{
			Category: c.Name,
			Name:     name,
			Path:     filepath.Join(dir, name),
			Expect:   Classify(name),
		})
	}

	if sorted {
		sort.Slice(cases, func(i, j int) bool {
			return cases[i].Name < cases[j].Name
		})
	}

	return cases, nil
}

func isDir(dir string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.IsDir()
}
