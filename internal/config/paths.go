// ABOUTME: Standard filesystem paths for lean-client configuration
// ABOUTME: Resolves ~/.lean-client/ for global and .lean-client/ for project-local config

package config

import (
	"os"
	"path/filepath"
)

const (
	globalDirName  = ".lean-client"
	projectDirName = ".lean-client"
	configBaseName = "config"
)

// configExtensions lists the accepted config file extensions in lookup order.
var configExtensions = []string{".yaml", ".yml", ".toml", ".json"}

// GlobalDir returns the user-global config directory (~/.lean-client/).
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", globalDirName)
	}
	return filepath.Join(home, globalDirName)
}

// ProjectDir returns the project-local config directory.
func ProjectDir(projectRoot string) string {
	return filepath.Join(projectRoot, projectDirName)
}

// FindConfigFile returns the first config.{yaml,yml,toml,json} in dir, or
// "" if there is none.
func FindConfigFile(dir string) string {
	for _, ext := range configExtensions {
		path := filepath.Join(dir, configBaseName+ext)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}
