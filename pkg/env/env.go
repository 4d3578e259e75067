// Package env reads process settings that are needed before the config tree
// is loaded.
package env

import (
	"os"
	"strings"
)

// Prefix namespaces every setting of this service.
const Prefix = "CATALOG_"

// Get returns Prefix+key when set, then the bare key, then fallback. Values
// are trimmed; blank counts as unset.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
