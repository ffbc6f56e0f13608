package in

import (
	"context"

	"magickd/internal/modules/execute/dto"
	executein "magickd/internal/modules/execute/port/in"
)

type CLIHandler struct {
	usecase executein.Usecase
}

func NewCLIHandler(usecase executein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Execute(ctx context.Context, input dto.ExecuteInput) (dto.ExecuteResult, error) {
	return h.usecase.Execute(ctx, input)
}

func (h CLIHandler) ExecuteOne(ctx context.Context, input dto.ExecuteInput) (dto.StepResult, error) {
	return h.usecase.ExecuteOne(ctx, input)
}

func (h CLIHandler) ExecuteAndReturnOutputFile(ctx context.Context, input dto.ExecuteInput, name string) (*dto.OutputFile, error) {
	return h.usecase.ExecuteAndReturnOutputFile(ctx, input, name)
}

func (h CLIHandler) Info(ctx context.Context) (dto.EngineInfo, error) {
	return h.usecase.Info(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) (dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}
