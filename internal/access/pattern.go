package access

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPattern is returned when a route pattern cannot be compiled.
var ErrInvalidPattern = errors.New("invalid route pattern")

type segmentKind uint8

const (
	literalSegment segmentKind = iota
	namedSegment
)

// segment is one '/'-separated piece of a pattern.  For a literal segment
// value is the text to match; for a named segment it is the name without
// the leading ':'.
type segment struct {
	kind  segmentKind
	value string
}

// Pattern is a compiled route pattern such as "/products/:slug".
type Pattern struct {
	raw      string
	segments []segment
	named    bool
}

// CompilePattern parses raw into a Pattern.  A pattern must start with '/';
// a segment beginning with ':' is a named segment and matches any non-empty
// run of characters other than '/'.
func CompilePattern(raw string) (Pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return Pattern{}, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, raw)
	}
	p := Pattern{raw: raw}
	seen := map[string]bool{}
	for _, part := range splitPath(raw) {
		if !strings.HasPrefix(part, ":") {
			p.segments = append(p.segments, segment{kind: literalSegment, value: part})
			continue
		}
		name := part[1:]
		if name == "" {
			return Pattern{}, fmt.Errorf("%w: %q has an unnamed segment", ErrInvalidPattern, raw)
		}
		if seen[name] {
			return Pattern{}, fmt.Errorf("%w: %q repeats segment %q", ErrInvalidPattern, raw, name)
		}
		seen[name] = true
		p.segments = append(p.segments, segment{kind: namedSegment, value: name})
		p.named = true
	}
	return p, nil
}

// MustCompilePattern is like CompilePattern but panics on error.  It is meant
// for package-level tables.
func MustCompilePattern(raw string) Pattern {
	p, err := CompilePattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string { return p.raw }

// HasNamedSegments reports whether the pattern contains at least one named segment.
func (p Pattern) HasNamedSegments() bool { return p.named }

// Match reports whether path matches the whole pattern.  Partial prefix
// matches never succeed: the segment counts must be equal.
func (p Pattern) Match(path string) bool {
	_, ok := p.match(path)
	return ok
}

// Params returns the values captured by named segments when path matches.
func (p Pattern) Params(path string) (map[string]string, bool) {
	return p.match(path)
}

func (p Pattern) match(path string) (map[string]string, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	parts := splitPath(path)
	if len(parts) != len(p.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range p.segments {
		switch seg.kind {
		case literalSegment:
			if parts[i] != seg.value {
				return nil, false
			}
		case namedSegment:
			if parts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, len(p.segments))
			}
			params[seg.value] = parts[i]
		}
	}
	return params, true
}

// splitPath splits an absolute path into its segments.  "/" yields a single
// empty segment and a trailing slash yields a trailing empty segment, so
// "/products/x/" never matches "/products/:slug".
func splitPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}
