package namespace

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidNamespace is returned when an identifier or path cannot be parsed
// into a structured namespace.
var ErrInvalidNamespace = errors.New("namespace: invalid identifier")

// Defaults applied when the caller does not configure lookups or the package
// naming convention.
var (
	// DefaultLookups are the path fragments that mark the generator root
	// inside a package.
	DefaultLookups = []string{"generators", "lib/generators"}

	// DefaultPackagePrefix is the package naming convention prefix stripped
	// when deriving the package-name segment from a path.
	DefaultPackagePrefix = "generator-"
)

// Namespace is a structured, colon-delimited generator identifier. The first
// segment is the package name and is used for grouping; the remaining
// segments address a generator inside the package.
type Namespace struct {
	Scope    string
	Segments []string
}

// Package returns the package-name segment.
func (n *Namespace) Package() string {
	if len(n.Segments) == 0 {
		return ""
	}
	return n.Segments[0]
}

// String renders the canonical form: [@scope/]name(:segment)*. A Namespace
// round-trips through Parse.
func (n *Namespace) String() string {
	if len(n.Segments) == 0 {
		return ""
	}
	var b strings.Builder
	if n.Scope != "" {
		b.WriteByte('@')
		b.WriteString(n.Scope)
		b.WriteByte('/')
	}
	b.WriteString(strings.Join(n.Segments, ":"))
	return b.String()
}

// FromPath derives a namespace from a filesystem location. The path is
// scanned for the last occurrence of any lookup fragment; everything after
// the fragment becomes the segment chain (base name stripped of its
// extension, an "index" file collapsed to its parent), everything before it
// yields the package-name segment with the naming-convention prefix removed.
func FromPath(location string, lookups []string) (*Namespace, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidNamespace)
	}
	if len(lookups) == 0 {
		lookups = DefaultLookups
	}
	normalized := strings.ReplaceAll(location, "\\", "/")

	// The last matching fragment wins; overlapping fragments (generators vs
	// lib/generators) are disambiguated by preferring the longer one.
	idx, end := -1, -1
	for _, lookup := range lookups {
		fragment := "/" + strings.Trim(lookup, "/") + "/"
		i := strings.LastIndex(normalized, fragment)
		if i == -1 {
			continue
		}
		if e := i + len(fragment); e > end || (e == end && i < idx) {
			idx, end = i, e
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: no lookup fragment in %q", ErrInvalidNamespace, location)
	}

	before := normalized[:idx]
	after := strings.Trim(normalized[end:], "/")

	segments := splitSubPath(after)
	result := &Namespace{}
	pkg := path.Base(before)
	if parent := path.Base(path.Dir(before)); strings.HasPrefix(parent, "@") {
		result.Scope = parent[1:]
	}
	pkg = strings.TrimPrefix(pkg, DefaultPackagePrefix)
	if pkg == "" || pkg == "." || pkg == "/" {
		return nil, fmt.Errorf("%w: no package segment in %q", ErrInvalidNamespace, location)
	}
	result.Segments = append([]string{pkg}, segments...)
	return result, nil
}

// splitSubPath converts the post-lookup portion of a path into namespace
// segments: the final element loses its extension, an index file collapses
// to the parent directory.
func splitSubPath(subPath string) []string {
	if subPath == "" {
		return nil
	}
	parts := strings.Split(subPath, "/")
	last := parts[len(parts)-1]
	if ext := path.Ext(last); ext != "" {
		last = last[:len(last)-len(ext)]
	}
	if last == "index" || last == "" {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = last
	}
	return parts
}
