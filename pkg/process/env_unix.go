//go:build !windows

package process

func envKey(k string) string {
	return k
}
