// Package permissions defines the capability grant declared by a manifest
// entry and the pure predicates that decide whether a concrete runtime
// request (a URL, a file path, a config key) is covered by it.
//
// An empty Set denies every guarded operation. There is no implicit
// default-allow anywhere in this package.
package permissions

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Mode selects which filesystem grant category a path check consults.
type Mode int

const (
	// ModeRead checks read_files / read_dirs.
	ModeRead Mode = iota
	// ModeWrite checks write_files / write_dirs.
	ModeWrite
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Set is the capability grant owned by exactly one tool or resource
// definition. All fields are optional; absence means deny for that
// category.
type Set struct {
	// Hosts holds scheme+host patterns: "https://api.github.com",
	// "https://*.wikipedia.org", or the scheme wildcard "https://*".
	// A pattern without an explicit port matches any port.
	Hosts []string `toml:"hosts" json:"hosts,omitempty"`
	// URLs holds exact allowed URLs (compared without fragment).
	URLs []string `toml:"urls" json:"urls,omitempty"`

	ReadFiles  []string `toml:"read_files" json:"read_files,omitempty"`
	WriteFiles []string `toml:"write_files" json:"write_files,omitempty"`
	ReadDirs   []string `toml:"read_dirs" json:"read_dirs,omitempty"`
	WriteDirs  []string `toml:"write_dirs" json:"write_dirs,omitempty"`

	ConfigKeys []string `toml:"config_keys" json:"config_keys,omitempty"`
}

// IsEmpty reports whether the set grants nothing at all.
func (s Set) IsEmpty() bool {
	return len(s.Hosts) == 0 && len(s.URLs) == 0 &&
		len(s.ReadFiles) == 0 && len(s.WriteFiles) == 0 &&
		len(s.ReadDirs) == 0 && len(s.WriteDirs) == 0 &&
		len(s.ConfigKeys) == 0
}

// Validate checks every pattern in the set for syntax errors so malformed
// grants are rejected at manifest load time, not silently never-matching
// at runtime.
func (s Set) Validate() error {
	for _, h := range s.Hosts {
		if err := validateHostPattern(h); err != nil {
			return err
		}
	}
	for _, u := range s.URLs {
		if err := validateURLEntry(u); err != nil {
			return err
		}
	}
	for _, group := range [][]string{s.ReadFiles, s.WriteFiles, s.ReadDirs, s.WriteDirs} {
		for _, p := range group {
			if err := validatePathPattern(p); err != nil {
				return err
			}
		}
	}
	for _, k := range s.ConfigKeys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("config_keys entry cannot be empty")
		}
	}
	return nil
}

// validateHostPattern accepts "scheme://host", "scheme://*.suffix" and
// "scheme://*", optionally with ":port" after the host part.
func validateHostPattern(pattern string) error {
	scheme, rest, ok := strings.Cut(pattern, "://")
	if !ok || scheme == "" || rest == "" {
		return fmt.Errorf("host pattern %q must be of the form scheme://host", pattern)
	}
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("host pattern %q has unsupported scheme %q", pattern, scheme)
	}
	if strings.ContainsAny(rest, "/?#") {
		return fmt.Errorf("host pattern %q must not contain a path, query or fragment", pattern)
	}
	host, _ := splitHostPort(rest)
	if host == "" {
		return fmt.Errorf("host pattern %q has an empty host", pattern)
	}
	if strings.Contains(host, "*") && host != "*" && !strings.HasPrefix(host, "*.") {
		return fmt.Errorf("host pattern %q: wildcard must be the whole host or a leading *. label", pattern)
	}
	if strings.Count(host, "*") > 1 {
		return fmt.Errorf("host pattern %q: at most one wildcard is allowed", pattern)
	}
	return nil
}

func validateURLEntry(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("urls entry %q is not a valid URL: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("urls entry %q must be an absolute URL", raw)
	}
	if strings.Contains(u.Host, "*") {
		return fmt.Errorf("urls entry %q must not contain wildcards", raw)
	}
	return nil
}

func validatePathPattern(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("path pattern cannot be empty")
	}
	if !filepath.IsAbs(p) {
		return fmt.Errorf("path pattern %q must be absolute", p)
	}
	return nil
}

// splitHostPort separates an optional trailing ":port" from a host
// pattern. Unlike net.SplitHostPort it tolerates the absence of a port.
func splitHostPort(hostport string) (host, port string) {
	i := strings.LastIndexByte(hostport, ':')
	if i < 0 {
		return hostport, ""
	}
	// IPv6 literals keep their colons inside brackets.
	if strings.HasSuffix(hostport, "]") {
		return hostport, ""
	}
	return hostport[:i], hostport[i+1:]
}
