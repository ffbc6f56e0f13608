package out

import (
	"context"
	"fmt"

	"magickd/internal/modules/execute/domain"
	executeout "magickd/internal/modules/execute/port/out"
)

// BlobCoercer turns output files into input-file form. Content is copied so
// later steps cannot observe mutation of an earlier step's output.
type BlobCoercer struct{}

func NewBlobCoercer() executeout.FileCoercer {
	return BlobCoercer{}
}

func (BlobCoercer) AsInput(_ context.Context, file domain.OutputFile) (domain.InputFile, error) {
	if file.Name == "" {
		return domain.InputFile{}, fmt.Errorf("output file name is required")
	}
	content := make([]byte, len(file.Content))
	copy(content, file.Content)
	return domain.InputFile{Name: file.Name, Content: content}, nil
}
