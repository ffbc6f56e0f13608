package out

import (
	"context"

	"magickd/internal/modules/imagehome/domain"
)

// InputCoercer turns a raw file representation into the canonical named-file
// record. It is an external collaborator; the registry treats it as opaque.
type InputCoercer interface {
	Coerce(ctx context.Context, file domain.RawFile) (domain.InputFile, error)
}

// BuiltInSource materializes the fixed built-in image set.
type BuiltInSource interface {
	Fetch(ctx context.Context) ([]domain.RawFile, error)
}
