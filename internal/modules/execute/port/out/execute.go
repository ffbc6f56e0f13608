package out

import (
	"context"

	"magickd/internal/modules/execute/domain"
)

type EngineStore interface {
	Load(ctx context.Context) (domain.EngineManifest, error)
}

// Engine is the single opaque boundary to the external processing binary.
type Engine interface {
	CheckLifecycle(ctx context.Context, manifest domain.EngineManifest) error
	GetMetadata(ctx context.Context, manifest domain.EngineManifest) (domain.Metadata, error)
	Call(ctx context.Context, manifest domain.EngineManifest, inputFiles []domain.InputFile, command domain.Command) (domain.CallResult, error)
}

// FileCoercer turns a produced output file into input-file form so later
// steps can consume it.
type FileCoercer interface {
	AsInput(ctx context.Context, file domain.OutputFile) (domain.InputFile, error)
}

type HistoryStore interface {
	RecordBatch(ctx context.Context, record domain.BatchRecord) error
}
