package in

import (
	"context"

	"magickd/internal/modules/imagehome/dto"
)

type Usecase interface {
	// Register starts asynchronous conversion and returns the name the file
	// is tracked under without waiting for the conversion to finish.
	Register(ctx context.Context, file dto.RawFile) (string, error)
	// Get awaits the file tracked under name. A miss yields (nil, nil).
	Get(ctx context.Context, name string) (*dto.InputFile, error)
	GetAll(ctx context.Context) ([]dto.InputFile, error)
	List(ctx context.Context) ([]dto.FileInfo, error)
	IsRegistered(name string, andReady bool) bool
	Remove(names []string) []string
	AddBuiltInImages(ctx context.Context) error
}
