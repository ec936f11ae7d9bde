//go:build windows

package process

import "strings"

// Windows environment variable names are case-insensitive.
func envKey(k string) string {
	return strings.ToUpper(k)
}
