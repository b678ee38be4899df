// Package treepath encodes materialized ancestor paths as delimited strings.
//
// A category's path is the ordered list of its ancestor ids from the root
// down to its parent, encoded as "/id1/id2/". A root carries the empty
// chain, encoded as "/". Because every encoded path ends with the
// delimiter, plain string-prefix comparison on paths is exactly the
// ancestor test, which is what makes prefix range scans on the store work.
package treepath

import (
	"strings"

	"github.com/questbank/questbank-server/internal/errors"
)

// Separator delimits id segments in an encoded path.
const Separator = "/"

// Root is the encoded path of a node with no ancestors.
const Root = Separator

// Encode builds a path string from an ordered ancestor id chain.
// Encode(nil) returns Root. Ids must not contain the separator; nanoid
// ids never do.
func Encode(ids []string) string {
	if len(ids) == 0 {
		return Root
	}
	var b strings.Builder
	b.Grow(len(ids) * 26)
	for _, id := range ids {
		b.WriteString(Separator)
		b.WriteString(id)
	}
	b.WriteString(Separator)
	return b.String()
}

// Decode returns the ancestor id chain of an encoded path.
// It is the inverse of Encode and rejects corrupt input.
func Decode(path string) ([]string, error) {
	if path == Root {
		return nil, nil
	}
	if len(path) < 3 || !strings.HasPrefix(path, Separator) || !strings.HasSuffix(path, Separator) {
		return nil, errors.MalformedPath("path %q is not slash-delimited", path)
	}
	segments := strings.Split(path[1:len(path)-1], Separator)
	for _, seg := range segments {
		if seg == "" {
			return nil, errors.MalformedPath("path %q contains an empty segment", path)
		}
		if strings.ContainsAny(seg, " \t\n") {
			return nil, errors.MalformedPath("path %q contains whitespace", path)
		}
	}
	return segments, nil
}

// IsPrefixOf reports whether ancestorPath is an ancestor-or-self prefix of
// nodePath. A pure string-prefix check: both arguments must be encoded
// paths (trailing separator included), so "/a/" never matches "/ab/".
func IsPrefixOf(ancestorPath, nodePath string) bool {
	return strings.HasPrefix(nodePath, ancestorPath)
}

// Child returns the path carried by children of a node with the given path
// and id.
func Child(parentPath, parentID string) string {
	if parentPath == "" {
		parentPath = Root
	}
	return parentPath + parentID + Separator
}

// Depth returns the number of ids encoded in path, without validating it.
func Depth(path string) int {
	if path == "" || path == Root {
		return 0
	}
	return strings.Count(path, Separator) - 1
}

// Contains reports whether the encoded path includes id as a segment.
func Contains(path, id string) bool {
	return strings.Contains(path, Separator+id+Separator)
}
