package permissions

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// HostAllowed reports whether u is covered by the set's hosts or urls
// entries. Scheme comparison is exact, host comparison case-insensitive
// per URL authority rules. Multiple matching entries still mean allow
// (union semantics); no entries mean deny.
func HostAllowed(s Set, u *url.URL) bool {
	if u == nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	for _, pattern := range s.Hosts {
		if hostPatternMatches(pattern, u) {
			return true
		}
	}
	for _, entry := range s.URLs {
		if urlEquals(entry, u) {
			return true
		}
	}
	return false
}

// PathAllowed reports whether path may be touched in the given mode. The
// path is canonicalized (absolute, lexically cleaned, symlinks of the
// longest existing prefix resolved) before matching, so "../" traversal
// and symlink escapes out of a granted directory are denied even when a
// naive prefix comparison would pass.
func PathAllowed(s Set, path string, mode Mode) bool {
	resolved, err := CanonicalPath(path)
	if err != nil {
		return false
	}

	files, dirs := s.ReadFiles, s.ReadDirs
	if mode == ModeWrite {
		files, dirs = s.WriteFiles, s.WriteDirs
	}

	for _, f := range files {
		allowed, err := CanonicalPath(f)
		if err != nil {
			continue
		}
		if resolved == allowed {
			return true
		}
	}
	for _, d := range dirs {
		allowed, err := CanonicalPath(d)
		if err != nil {
			continue
		}
		if dirContains(allowed, resolved) {
			return true
		}
	}
	return false
}

// ConfigKeyAllowed reports whether key is declared in config_keys.
func ConfigKeyAllowed(s Set, key string) bool {
	for _, k := range s.ConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

// hostPatternMatches checks one scheme://host[:port] pattern against a
// parsed URL.
func hostPatternMatches(pattern string, u *url.URL) bool {
	scheme, rest, ok := strings.Cut(pattern, "://")
	if !ok {
		return false
	}
	if !strings.EqualFold(scheme, u.Scheme) {
		return false
	}

	patHost, patPort := splitHostPort(rest)
	if patPort != "" && patPort != u.Port() {
		return false
	}

	host := strings.ToLower(u.Hostname())
	patHost = strings.ToLower(patHost)

	switch {
	case patHost == "*":
		return true
	case strings.HasPrefix(patHost, "*."):
		suffix := patHost[1:] // ".example.com"
		return strings.HasSuffix(host, suffix) && len(host) > len(suffix)
	default:
		return host == patHost
	}
}

// urlEquals compares a declared exact URL against a request URL,
// ignoring fragments and case of scheme/host.
func urlEquals(entry string, u *url.URL) bool {
	e, err := url.Parse(entry)
	if err != nil {
		return false
	}
	if !strings.EqualFold(e.Scheme, u.Scheme) || !strings.EqualFold(e.Host, u.Host) {
		return false
	}
	ePath, uPath := e.EscapedPath(), u.EscapedPath()
	if ePath == "" {
		ePath = "/"
	}
	if uPath == "" {
		uPath = "/"
	}
	return ePath == uPath && e.RawQuery == u.RawQuery
}

// CanonicalPath resolves a path to its canonical absolute form: lexical
// cleaning removes "." and ".." segments, then symlinks are resolved for
// the longest prefix of the path that exists on disk. Non-existent
// trailing segments are kept verbatim so a write target inside a granted
// directory can be checked before the file exists.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	// Walk up to the deepest existing ancestor, resolve that, and
	// re-attach the non-existent remainder.
	dir := abs
	var remainder []string
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			// Hit the root without finding anything on disk.
			return abs, nil
		}
		remainder = append(remainder, filepath.Base(dir))
		dir = parent

		resolved, err = filepath.EvalSymlinks(dir)
		if err == nil {
			break
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}

	for i := len(remainder) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, remainder[i])
	}
	return resolved, nil
}

// dirContains reports whether p equals dir or lives underneath it.
func dirContains(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
