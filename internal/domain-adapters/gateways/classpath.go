package gateways

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LibraryJars returns the *.jar files directly inside dir in lexical order.
// A missing directory yields no jars.
func LibraryJars(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list library directory: %w", err)
	}

	var jars []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jar") {
			continue
		}
		jars = append(jars, filepath.Join(dir, e.Name()))
	}
	sort.Strings(jars)
	return jars, nil
}

// JoinClasspath joins entries with the platform path list separator
func JoinClasspath(entries []string) string {
	return strings.Join(entries, string(os.PathListSeparator))
}
