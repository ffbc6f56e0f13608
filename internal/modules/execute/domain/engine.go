package domain

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrEngineDisabled   = errors.New("engine is disabled")
	ErrChecksumMismatch = errors.New("engine checksum mismatch")
	ErrEngineTimeout    = errors.New("engine timeout")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// EngineManifest describes the out-of-process engine binary.
type EngineManifest struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Binary  string `yaml:"binary"`
	SHA256  string `yaml:"sha256"`
	Enabled bool   `yaml:"enabled"`
}

func (m EngineManifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("engine name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("engine version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("engine binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("engine sha256 must be lowercase 64-char hex")
	}
	return nil
}

// Metadata is what a running engine reports about itself.
type Metadata struct {
	Name    string
	Version string
	Formats []string
}
