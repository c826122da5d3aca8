package parser

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultFilePrefix is the name prefix of TLMS measurement result logs.
const DefaultFilePrefix = "MeasureResult"

// ExpandSources turns a list of files, glob patterns and directories into a
// sorted, deduplicated list of log files. Directories are walked recursively
// for files named "<prefix>*.csv" (extension case-insensitive). Patterns
// that match nothing are returned as-is so the caller reports the missing
// file against its own name.
func ExpandSources(sources []string, prefix string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			result = append(result, path)
		}
	}

	for _, source := range sources {
		matches, err := filepath.Glob(source)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", source, err)
		}
		if len(matches) == 0 {
			add(source)
			continue
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				add(match)
				continue
			}
			files, err := walkMeasureResults(match, prefix)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		}
	}

	sort.Strings(result)
	return result, nil
}

func walkMeasureResults(root, prefix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(strings.ToLower(name), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}
