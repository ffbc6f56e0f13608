package out

import (
	"context"
	"fmt"

	executedto "magickd/internal/modules/execute/dto"
	executein "magickd/internal/modules/execute/port/in"
	"magickd/internal/modules/imagehome/domain"
	imagehomeout "magickd/internal/modules/imagehome/port/out"
)

// EngineBuiltInSource materializes the built-in image set by running the
// engine's pseudo-sources ("rose:", "logo:", ...) through the execute module.
type EngineBuiltInSource struct {
	execute executein.Usecase
}

func NewEngineBuiltInSource(execute executein.Usecase) imagehomeout.BuiltInSource {
	return &EngineBuiltInSource{execute: execute}
}

func (s *EngineBuiltInSource) Fetch(ctx context.Context) ([]domain.RawFile, error) {
	files := make([]domain.RawFile, 0, len(domain.BuiltInNames))
	for _, name := range domain.BuiltInNames {
		target := name + ".png"
		input := executedto.ExecuteInput{
			Commands: executedto.CommandInput{Argv: []string{"convert", name + ":", target}},
		}
		file, err := s.execute.ExecuteAndReturnOutputFile(ctx, input, target)
		if err != nil {
			return nil, fmt.Errorf("materialize built-in image %q: %w", name, err)
		}
		if file == nil {
			return nil, fmt.Errorf("engine produced no output for built-in image %q", name)
		}
		files = append(files, domain.RawFile{Name: file.Name, Content: file.Content})
	}
	return files, nil
}
