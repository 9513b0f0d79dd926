package opener

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
)

// RegularFileOpenerFactory expands a path, glob or file URL into File
// openers sorted by path. Accepted forms:
//
//	data/*.csv
//	file:///tmp/data.csv
//	file:/tmp/data.csv
//	C:\data\*.csv
//	\\server\share\data.csv
//
// A spec that matches nothing is an error.
func RegularFileOpenerFactory(spec string) ([]Opener, error) {
	glob, err := normalizeFileSpec(spec)
	if err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files matched: %q", glob)
	}
	sort.Strings(paths)
	ops := make([]Opener, len(paths))
	for i, p := range paths {
		ops[i] = NewFile(p)
	}
	return ops, nil
}

// normalizeFileSpec turns spec into a pattern for filepath.Glob.
func normalizeFileSpec(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if u, err := url.Parse(spec); err == nil && u.Scheme != "" &&
		!strings.EqualFold(u.Scheme, "file") && !isWindowsDrivePath(spec) {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if len(spec) >= 5 && strings.EqualFold(spec[:5], "file:") {
		return normalizeFileURL(spec)
	}
	return spec, nil
}

// normalizeFileURL decodes file:///abs, file:/opaque and file://host/share
// URLs into filesystem paths.
func normalizeFileURL(spec string) (string, error) {
	u, err := url.Parse(spec)
	if err != nil {
		return "", err
	}
	path := u.Path
	switch {
	case u.Path == "" && u.Opaque != "":
		path = u.Opaque
	case u.Host != "" && !strings.EqualFold(u.Host, "localhost"):
		path = "//" + u.Host + u.Path
	}
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	// /C:/dir → C:/dir
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	if path == "" {
		return "", fmt.Errorf("empty file URI: %q", spec)
	}
	return filepath.FromSlash(path), nil
}

// isWindowsDrivePath reports whether spec starts like C:\ or C:/.
func isWindowsDrivePath(spec string) bool {
	if len(spec) < 2 || spec[1] != ':' {
		return false
	}
	c := spec[0]
	if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
		return false
	}
	return len(spec) == 2 || spec[2] == '\\' || spec[2] == '/'
}
