package out

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"magickd/internal/modules/imagehome/domain"
	imagehomeout "magickd/internal/modules/imagehome/port/out"
)

// ContentCoercer resolves raw file representations into canonical named-file
// records: inline content wins, then base64, then a read from disk.
type ContentCoercer struct{}

func NewContentCoercer() imagehomeout.InputCoercer {
	return ContentCoercer{}
}

func (ContentCoercer) Coerce(_ context.Context, file domain.RawFile) (domain.InputFile, error) {
	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
	}
	switch {
	case len(file.Content) > 0:
		content := make([]byte, len(file.Content))
		copy(content, file.Content)
		return domain.InputFile{Name: name, Content: content}, nil
	case file.Base64 != "":
		content, err := base64.StdEncoding.DecodeString(file.Base64)
		if err != nil {
			return domain.InputFile{}, fmt.Errorf("decode base64 content of %q: %w", name, err)
		}
		return domain.InputFile{Name: name, Content: content}, nil
	case file.Path != "":
		content, err := os.ReadFile(file.Path)
		if err != nil {
			return domain.InputFile{}, fmt.Errorf("read file %q: %w", file.Path, err)
		}
		return domain.InputFile{Name: name, Content: content}, nil
	default:
		return domain.InputFile{}, fmt.Errorf("file %q has no content", name)
	}
}
