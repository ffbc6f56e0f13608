package in

import (
	"context"

	"magickd/internal/modules/imagehome/dto"
	imagehomein "magickd/internal/modules/imagehome/port/in"
)

type CLIHandler struct {
	usecase imagehomein.Usecase
}

func NewCLIHandler(usecase imagehomein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Register(ctx context.Context, file dto.RawFile) (string, error) {
	return h.usecase.Register(ctx, file)
}

func (h CLIHandler) Get(ctx context.Context, name string) (*dto.InputFile, error) {
	return h.usecase.Get(ctx, name)
}

func (h CLIHandler) GetAll(ctx context.Context) ([]dto.InputFile, error) {
	return h.usecase.GetAll(ctx)
}

func (h CLIHandler) List(ctx context.Context) ([]dto.FileInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) IsRegistered(name string, andReady bool) bool {
	return h.usecase.IsRegistered(name, andReady)
}

func (h CLIHandler) Remove(names []string) []string {
	return h.usecase.Remove(names)
}

func (h CLIHandler) AddBuiltInImages(ctx context.Context) error {
	return h.usecase.AddBuiltInImages(ctx)
}
