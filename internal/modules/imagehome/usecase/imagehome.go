package usecase

import (
	"context"
	"path/filepath"

	"magickd/internal/modules/imagehome/domain"
	"magickd/internal/modules/imagehome/dto"
	imagehomein "magickd/internal/modules/imagehome/port/in"
	"magickd/internal/modules/imagehome/service"
)

type Interactor struct {
	svc *service.HomeService
}

func NewInteractor(svc *service.HomeService) imagehomein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Register(ctx context.Context, file dto.RawFile) (string, error) {
	raw := domain.RawFile{Name: file.Name, Content: file.Content, Base64: file.Base64, Path: file.Path}
	if raw.Name == "" && raw.Path != "" {
		raw.Name = filepath.Base(raw.Path)
	}
	if _, err := i.svc.Register(ctx, raw, raw.Name); err != nil {
		return "", err
	}
	return raw.Name, nil
}

func (i *Interactor) Get(ctx context.Context, name string) (*dto.InputFile, error) {
	fut := i.svc.Get(name)
	if fut == nil {
		return nil, nil
	}
	file, err := fut.Await(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.InputFile{Name: file.Name, Content: file.Content}, nil
}

func (i *Interactor) GetAll(ctx context.Context) ([]dto.InputFile, error) {
	files, err := i.svc.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InputFile, 0, len(files))
	for _, file := range files {
		out = append(out, dto.InputFile{Name: file.Name, Content: file.Content})
	}
	return out, nil
}

func (i *Interactor) List(_ context.Context) ([]dto.FileInfo, error) {
	statuses := i.svc.List()
	out := make([]dto.FileInfo, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, dto.FileInfo{Name: status.Name, Ready: status.Ready})
	}
	return out, nil
}

func (i *Interactor) IsRegistered(name string, andReady bool) bool {
	return i.svc.IsRegistered(name, andReady)
}

// Remove deletes matching entries and reports the names that matched. The
// service hands back the removed futures; the CLI boundary only needs names.
func (i *Interactor) Remove(names []string) []string {
	matched := make([]string, 0, len(names))
	for _, name := range names {
		if i.svc.IsRegistered(name, false) {
			matched = append(matched, name)
		}
	}
	i.svc.Remove(matched)
	return matched
}

func (i *Interactor) AddBuiltInImages(ctx context.Context) error {
	return i.svc.AddBuiltInImages(ctx)
}
