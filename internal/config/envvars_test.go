// ABOUTME: Tests for environment variable expansion and overrides in config
// ABOUTME: Validates ${VAR} replacement and LEAN_CLIENT_* precedence

package config

import (
	"testing"

	"github.com/mauromedda/lean-client-go/pkg/transport/worker"
)

func TestExpandEnv_Set(t *testing.T) {
	t.Setenv("TEST_LEAN_HOME", "/opt/lean")
	result := expandEnv("${TEST_LEAN_HOME}")
	if result != "/opt/lean" {
		t.Errorf("expandEnv = %q; want %q", result, "/opt/lean")
	}
}

func TestExpandEnv_Unset(t *testing.T) {
	result := expandEnv("${DEFINITELY_NOT_SET_12345}")
	if result != "" {
		t.Errorf("expandEnv = %q; want empty for unset var", result)
	}
}

func TestExpandEnv_Mixed(t *testing.T) {
	t.Setenv("MY_HOST", "localhost")
	result := expandEnv("ws://${MY_HOST}:8080/worker")
	if result != "ws://localhost:8080/worker" {
		t.Errorf("expandEnv = %q; want %q", result, "ws://localhost:8080/worker")
	}
}

func TestExpandEnv_NoPattern(t *testing.T) {
	result := expandEnv("plain string")
	if result != "plain string" {
		t.Errorf("expandEnv = %q; want %q", result, "plain string")
	}
}

func TestResolveEnvVars_Fields(t *testing.T) {
	t.Setenv("LEAN_HOME", "/opt/lean")
	t.Setenv("CDN", "https://cdn.example.com")

	c := &Config{
		Process: ProcessConfig{
			Executable: "${LEAN_HOME}/bin/lean",
			Args:       []string{"--path=${LEAN_HOME}/library"},
			Env:        map[string]string{"LEAN_PATH": "${LEAN_HOME}/library"},
		},
		Worker: WorkerConfig{URL: "${CDN}/worker"},
		InVM:   worker.Options{LibraryZip: "${CDN}/library.zip"},
	}
	ResolveEnvVars(c)

	checks := map[string]struct{ got, want string }{
		"Executable": {c.Process.Executable, "/opt/lean/bin/lean"},
		"Args[0]":    {c.Process.Args[0], "--path=/opt/lean/library"},
		"Env":        {c.Process.Env["LEAN_PATH"], "/opt/lean/library"},
		"Worker.URL": {c.Worker.URL, "https://cdn.example.com/worker"},
		"LibraryZip": {c.InVM.LibraryZip, "https://cdn.example.com/library.zip"},
	}
	for name, ch := range checks {
		if ch.got != ch.want {
			t.Errorf("%s = %q; want %q", name, ch.got, ch.want)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvTransport, TransportInVM)
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogMessages, "true")
	t.Setenv(EnvExecutable, "/custom/lean")
	t.Setenv(EnvWorkerURL, "ws://remote/worker")

	c := &Config{Transport: TransportProcess, LogLevel: "warn", Process: ProcessConfig{Executable: "lean"}}
	ApplyEnvOverrides(c)

	if c.Transport != TransportInVM || c.LogLevel != "debug" || !c.LogMessages {
		t.Errorf("got %q/%q/%v", c.Transport, c.LogLevel, c.LogMessages)
	}
	if c.Process.Executable != "/custom/lean" || c.Worker.URL != "ws://remote/worker" {
		t.Errorf("got %q/%q", c.Process.Executable, c.Worker.URL)
	}
}

func TestApplyEnvOverrides_InvalidBoolIgnored(t *testing.T) {
	t.Setenv(EnvLogMessages, "sometimes")

	c := &Config{LogMessages: true}
	ApplyEnvOverrides(c)
	if !c.LogMessages {
		t.Error("invalid bool should leave LogMessages unchanged")
	}
}
