package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"magickd/internal/modules/execute/domain"
	executeout "magickd/internal/modules/execute/port/out"
	apperrors "magickd/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

type FileEngineStore struct {
	basePath string
	path     string
}

func NewFileEngineStore(basePath string, path string) executeout.EngineStore {
	return &FileEngineStore{basePath: basePath, path: path}
}

func (s *FileEngineStore) Load(_ context.Context) (domain.EngineManifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.EngineManifest{}, fmt.Errorf("%w: engine manifest %s", apperrors.ErrNotFound, s.path)
		}
		return domain.EngineManifest{}, fmt.Errorf("read engine manifest: %w", err)
	}
	var manifest domain.EngineManifest
	if err := yaml.Unmarshal(b, &manifest); err != nil {
		return domain.EngineManifest{}, fmt.Errorf("decode engine manifest: %w", err)
	}
	if manifest.Binary != "" && !filepath.IsAbs(manifest.Binary) {
		manifest.Binary = filepath.Clean(filepath.Join(s.basePath, manifest.Binary))
	}
	return manifest, nil
}
