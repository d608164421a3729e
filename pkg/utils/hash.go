package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// CacheKey hashes its parts into a stable hex key for Redis.
func CacheKey(parts ...string) string {
	hash := md5.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", hash)
}
