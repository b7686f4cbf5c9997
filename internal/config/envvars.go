// ABOUTME: Environment handling for config: ${VAR} expansion and LEAN_CLIENT_* overrides
// ABOUTME: Unset vars expand to empty; overrides apply after file merging

package config

import (
	"os"
	"regexp"
	"strconv"

	"github.com/mauromedda/lean-client-go/pkg/transport/worker"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// Environment overrides, applied after the config files are merged.
const (
	EnvTransport   = "LEAN_CLIENT_TRANSPORT"
	EnvLogLevel    = "LEAN_CLIENT_LOG_LEVEL"
	EnvLogMessages = "LEAN_CLIENT_LOG_MESSAGES"
	EnvExecutable  = "LEAN_CLIENT_LEAN_PATH"
	EnvWorkerURL   = "LEAN_CLIENT_WORKER_URL"
)

// ResolveEnvVars expands ${VAR} patterns in the string fields of c.
func ResolveEnvVars(c *Config) {
	c.Process.Executable = expandEnv(c.Process.Executable)
	c.Process.WorkingDirectory = expandEnv(c.Process.WorkingDirectory)
	for i, a := range c.Process.Args {
		c.Process.Args[i] = expandEnv(a)
	}
	for k, v := range c.Process.Env {
		c.Process.Env[k] = expandEnv(v)
	}

	c.Worker.URL = expandEnv(c.Worker.URL)
	expandOptions(&c.Worker.Options)
	expandOptions(&c.InVM)
}

func expandOptions(o *worker.Options) {
	o.LibraryZip = expandEnv(o.LibraryZip)
	o.LibraryMeta = expandEnv(o.LibraryMeta)
	o.LibraryOleanMap = expandEnv(o.LibraryOleanMap)
	o.EngineWasm = expandEnv(o.EngineWasm)
}

// ApplyEnvOverrides replaces fields whose LEAN_CLIENT_* variable is set.
func ApplyEnvOverrides(c *Config) {
	if v := os.Getenv(EnvTransport); v != "" {
		c.Transport = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogMessages); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogMessages = b
		}
	}
	if v := os.Getenv(EnvExecutable); v != "" {
		c.Process.Executable = v
	}
	if v := os.Getenv(EnvWorkerURL); v != "" {
		c.Worker.URL = v
	}
}

// expandEnv replaces ${VAR} with os.Getenv(VAR). Unset vars become "".
func expandEnv(s string) string {
	if s == "" {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
