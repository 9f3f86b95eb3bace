package filetree

import (
	"path"
	"strings"
)

// RootPath is the path of a scope's root tree.
const RootPath = ""

// NormalizePath canonicalizes a file tree path.
//
// Leading and trailing slashes are trimmed and the result is cleaned, so
// "/a//b/" and "a/b" address the same object. The root is the empty string.
// A ".." segment is rejected because paths are always scope-relative.
func NormalizePath(p string) (string, error) {
	trimmed := strings.Trim(p, "/")
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == ".." {
			return "", NewError(ErrInvalidArgument, p, "path escapes its scope")
		}
	}

	cleaned := path.Clean("/" + trimmed)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "." {
		return RootPath, nil
	}
	return cleaned, nil
}

// SplitPath returns the parent path and last segment of a normalized path.
// The parent of a top-level entry is the root path.
func SplitPath(p string) (parent, name string) {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return RootPath, p
	}
	return p[:idx], p[idx+1:]
}
