// ABOUTME: Windows environment shim so a Lean built under msys2 finds its runtime DLLs
// ABOUTME: Appends the msys2 bin directories to Path and compares keys case-insensitively

//go:build windows

package process

import "strings"

var msysPaths = []string{`C:\msys64\mingw64\bin`, `C:\msys64\usr\local\bin`, `C:\msys64\usr\bin`, `C:\msys64\bin`, `C:\msys64\opt\bin`}

func envKeyEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

func platformEnv(env []string) []string {
	for i, kv := range env {
		if len(kv) > 5 && strings.EqualFold(kv[:5], "path=") {
			env[i] = kv + ";" + strings.Join(msysPaths, ";")
			return env
		}
	}
	return append(env, "Path="+strings.Join(msysPaths, ";"))
}
