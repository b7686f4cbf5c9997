// ABOUTME: Client configuration with global + project config merge
// ABOUTME: Reads YAML, JSON or TOML by file extension; project values win when set

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mauromedda/lean-client-go/pkg/transport/invm"
	"github.com/mauromedda/lean-client-go/pkg/transport/worker"
)

// Transport names.
const (
	TransportProcess = "process"
	TransportWorker  = "worker"
	TransportInVM    = "invm"
)

// Config holds the merged client configuration.
type Config struct {
	// Transport is one of process, worker or invm. Empty means process.
	Transport string `json:"transport,omitempty" yaml:"transport" toml:"transport"`
	LogLevel  string `json:"log_level,omitempty" yaml:"log_level" toml:"log_level"`
	// LogMessages traces every message to and from the server.
	LogMessages bool `json:"log_messages,omitempty" yaml:"log_messages" toml:"log_messages"`

	Process ProcessConfig  `json:"process" yaml:"process" toml:"process"`
	Worker  WorkerConfig   `json:"worker" yaml:"worker" toml:"worker"`
	InVM    worker.Options `json:"invm" yaml:"invm" toml:"invm"`
}

// ProcessConfig configures the child-process transport.
type ProcessConfig struct {
	Executable       string            `json:"executable,omitempty" yaml:"executable" toml:"executable"`
	WorkingDirectory string            `json:"working_directory,omitempty" yaml:"working_directory" toml:"working_directory"`
	Args             []string          `json:"args,omitempty" yaml:"args" toml:"args"`
	Env              map[string]string `json:"env,omitempty" yaml:"env" toml:"env"`
}

// WorkerConfig configures the worker transport. Without a URL the worker
// runs in-process on a goroutine.
type WorkerConfig struct {
	URL     string         `json:"url,omitempty" yaml:"url" toml:"url"`
	Options worker.Options `json:"options" yaml:"options" toml:"options"`
}

// ErrUnknownFormat is returned for config files with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown config format")

// Load reads and merges the global and project-local config, expands
// ${VAR} references, then applies LEAN_CLIENT_* overrides.
func Load(projectRoot string) (*Config, error) {
	return loadDirs(GlobalDir(), ProjectDir(projectRoot))
}

func loadDirs(globalDir, projectDir string) (*Config, error) {
	global, err := loadDir(globalDir)
	if err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	project, err := loadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg := merge(global, project)
	ResolveEnvVars(cfg)
	ApplyEnvOverrides(cfg)
	return cfg, cfg.Validate()
}

// loadDir reads the first config file found in dir. A missing file yields
// an empty Config.
func loadDir(dir string) (*Config, error) {
	path := FindConfigFile(dir)
	if path == "" {
		return &Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads one config file, choosing the decoder by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	case ".json":
		err = json.Unmarshal(data, &c)
	case ".toml":
		err = toml.Unmarshal(data, &c)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &c, nil
}

// Validate checks the transport name.
func (c *Config) Validate() error {
	switch c.Transport {
	case "", TransportProcess, TransportWorker, TransportInVM:
	default:
		return fmt.Errorf("unknown transport %q (want %s, %s or %s)",
			c.Transport, TransportProcess, TransportWorker, TransportInVM)
	}
	if mb := c.InVM.MemoryMB; mb > invm.MaxMemoryMB {
		return fmt.Errorf("invm.memory_mb %d exceeds %d", mb, invm.MaxMemoryMB)
	}
	if mb := c.Worker.Options.MemoryMB; mb > invm.MaxMemoryMB {
		return fmt.Errorf("worker.options.memory_mb %d exceeds %d", mb, invm.MaxMemoryMB)
	}
	return nil
}

// merge overlays project onto global. Non-zero project values override
// global values; env maps are merged key by key.
func merge(global, project *Config) *Config {
	if global == nil {
		global = &Config{}
	}
	if project == nil {
		return global
	}

	result := *global
	setString(&result.Transport, project.Transport)
	setString(&result.LogLevel, project.LogLevel)
	if project.LogMessages {
		result.LogMessages = true
	}

	setString(&result.Process.Executable, project.Process.Executable)
	setString(&result.Process.WorkingDirectory, project.Process.WorkingDirectory)
	if len(project.Process.Args) > 0 {
		result.Process.Args = project.Process.Args
	}
	if len(project.Process.Env) > 0 {
		env := make(map[string]string, len(global.Process.Env)+len(project.Process.Env))
		for k, v := range global.Process.Env {
			env[k] = v
		}
		for k, v := range project.Process.Env {
			env[k] = v
		}
		result.Process.Env = env
	}

	setString(&result.Worker.URL, project.Worker.URL)
	mergeOptions(&result.Worker.Options, project.Worker.Options)
	mergeOptions(&result.InVM, project.InVM)
	return &result
}

func mergeOptions(dst *worker.Options, src worker.Options) {
	setString(&dst.LibraryZip, src.LibraryZip)
	setString(&dst.LibraryMeta, src.LibraryMeta)
	setString(&dst.LibraryOleanMap, src.LibraryOleanMap)
	setString(&dst.EngineWasm, src.EngineWasm)
	if src.MemoryMB != 0 {
		dst.MemoryMB = src.MemoryMB
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

