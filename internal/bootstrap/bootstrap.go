package bootstrap

import (
	"fmt"

	executeinadapter "magickd/internal/modules/execute/adapter/in"
	executeoutadapter "magickd/internal/modules/execute/adapter/out"
	executeservice "magickd/internal/modules/execute/service"
	executeusecase "magickd/internal/modules/execute/usecase"
	imagehomeinadapter "magickd/internal/modules/imagehome/adapter/in"
	imagehomeoutadapter "magickd/internal/modules/imagehome/adapter/out"
	imagehomeservice "magickd/internal/modules/imagehome/service"
	imagehomeusecase "magickd/internal/modules/imagehome/usecase"
	"magickd/internal/platform/clock"
	"magickd/internal/platform/config"
	"magickd/internal/platform/id"
)

type App struct {
	ExecuteCLI executeinadapter.CLIHandler
	HomeCLI    imagehomeinadapter.CLIHandler
}

func New(cfg config.Config) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.RandomHex{}

	history, err := executeoutadapter.NewSQLiteHistoryStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new history store: %w", err)
	}
	executeSvc := executeservice.NewExecuteService(
		clk,
		ids,
		executeoutadapter.NewFileEngineStore(cfg.WorkspacePath, cfg.EnginePath),
		executeoutadapter.NewGRPCEngine(),
		executeoutadapter.NewBlobCoercer(),
		history,
	)
	executeUC := executeusecase.NewInteractor(executeSvc)

	homeSvc := imagehomeservice.NewHomeService(
		imagehomeoutadapter.NewContentCoercer(),
		imagehomeoutadapter.NewEngineBuiltInSource(executeUC),
	)
	homeUC := imagehomeusecase.NewInteractor(homeSvc)

	return &App{
		ExecuteCLI: executeinadapter.NewCLIHandler(executeUC),
		HomeCLI:    imagehomeinadapter.NewCLIHandler(homeUC),
	}, nil
}
