package usecase

import (
	"context"

	"magickd/internal/modules/execute/dto"
	executein "magickd/internal/modules/execute/port/in"
	"magickd/internal/modules/execute/service"
)

type Interactor struct {
	svc *service.ExecuteService
}

func NewInteractor(svc *service.ExecuteService) executein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Execute(ctx context.Context, input dto.ExecuteInput) (dto.ExecuteResult, error) {
	return i.svc.Execute(ctx, input)
}

func (i *Interactor) ExecuteOne(ctx context.Context, input dto.ExecuteInput) (dto.StepResult, error) {
	return i.svc.ExecuteOne(ctx, input)
}

func (i *Interactor) ExecuteAndReturnOutputFile(ctx context.Context, input dto.ExecuteInput, name string) (*dto.OutputFile, error) {
	return i.svc.ExecuteAndReturnOutputFile(ctx, input, name)
}

func (i *Interactor) Info(ctx context.Context) (dto.EngineInfo, error) {
	return i.svc.Info(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) (dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}
