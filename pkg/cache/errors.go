package cache

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidKey is returned for keys that cannot name a cache file.
var ErrInvalidKey = errors.New("invalid cache key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidKey reports whether key can be stored by a [FileCache]: it starts
// with a letter or digit, uses only letters, digits and ". _ : -", and does
// not end in the expiry sidecar suffix.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key) && !strings.HasSuffix(key, expirySuffix)
}
