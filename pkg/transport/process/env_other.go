// ABOUTME: Environment handling for non-Windows platforms
// ABOUTME: Keys are case-sensitive and the inherited PATH is used unchanged

//go:build !windows

package process

func envKeyEqual(a, b string) bool {
	return a == b
}

func platformEnv(env []string) []string {
	return env
}
