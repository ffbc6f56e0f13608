package config

import (
	"fmt"
	"path/filepath"
)

type Config struct {
	WorkspacePath string
	DBPath        string
	EnginePath    string
}

func New(workspacePath string) (Config, error) {
	if workspacePath == "" {
		return Config{}, fmt.Errorf("workspace path is required")
	}
	return Config{
		WorkspacePath: workspacePath,
		DBPath:        filepath.Join(workspacePath, ".magickd", "magickd.db"),
		EnginePath:    filepath.Join(workspacePath, "engine.yaml"),
	}, nil
}
