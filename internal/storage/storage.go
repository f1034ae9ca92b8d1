// Package storage keeps uploaded files on the local filesystem or in an
// S3 compatible bucket.
package storage

import (
	"errors"
	"path"
	"strings"
)

var (
	ErrInvalidPath   = errors.New("invalid path")
	ErrInvalidConfig = errors.New("invalid storage configuration")
	ErrFileNotFound  = errors.New("file not found")

	ErrAccessDenied       = errors.New("access denied")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrServiceUnavailable = errors.New("storage service unavailable")
)

// cleanKey normalizes a relative, slash separated path and rejects paths
// that would escape the storage root.
func cleanKey(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}

	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}

	return cleaned, nil
}

func withTrailingSlash(s string) string {
	if s != "" && !strings.HasSuffix(s, "/") {
		return s + "/"
	}
	return s
}
