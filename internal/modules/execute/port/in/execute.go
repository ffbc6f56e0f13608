package in

import (
	"context"

	"magickd/internal/modules/execute/dto"
)

type Usecase interface {
	Execute(ctx context.Context, input dto.ExecuteInput) (dto.ExecuteResult, error)
	ExecuteOne(ctx context.Context, input dto.ExecuteInput) (dto.StepResult, error)
	ExecuteAndReturnOutputFile(ctx context.Context, input dto.ExecuteInput, name string) (*dto.OutputFile, error)
	Info(ctx context.Context) (dto.EngineInfo, error)
	Doctor(ctx context.Context) (dto.DoctorResult, error)
}
