package mesh

import (
	"os"
	"strings"
)

// SearchPaths is a list of normalized directory paths, each ending with a
// slash.
type SearchPaths []string

// NewSearchPaths normalizes each of dirs and keeps those that are existing
// directories. Backslashes are replaced with slashes, and a trailing slash is
// added.
func NewSearchPaths(dirs ...string) SearchPaths {
	var paths SearchPaths
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		dir = fixPath(dir)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		paths = append(paths, dir)
	}
	return paths
}

func fixPath(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}

// Find returns the first existing regular file formed by joining a search
// path with rel.
func (p SearchPaths) Find(rel string) (file string, ok bool) {
	rel = strings.TrimLeft(strings.ReplaceAll(rel, `\`, "/"), "/")
	for _, dir := range p {
		file := dir + rel
		if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
			return file, true
		}
	}
	return "", false
}
