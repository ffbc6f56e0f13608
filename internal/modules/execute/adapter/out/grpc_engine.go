package out

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	enginerpc "magickd/internal/modules/execute/adapter/out/rpc"
	"magickd/internal/modules/execute/domain"
	executeout "magickd/internal/modules/execute/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 30 * time.Second
)

type GRPCEngine struct{}

func NewGRPCEngine() executeout.Engine {
	return &GRPCEngine{}
}

func (e *GRPCEngine) CheckLifecycle(ctx context.Context, manifest domain.EngineManifest) error {
	client, closeFn, err := e.connect(ctx, manifest, defaultStartTimeout)
	if err != nil {
		return err
	}
	defer closeFn()

	callCtx, cancel := e.callContext(ctx, defaultStartTimeout)
	defer cancel()
	if _, err := client.GetMetadata(callCtx); err != nil {
		return fmt.Errorf("get metadata: %w", err)
	}
	return nil
}

func (e *GRPCEngine) GetMetadata(ctx context.Context, manifest domain.EngineManifest) (domain.Metadata, error) {
	client, closeFn, err := e.connect(ctx, manifest, defaultStartTimeout)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer closeFn()

	callCtx, cancel := e.callContext(ctx, defaultStartTimeout)
	defer cancel()

	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version, Formats: meta.Formats}, nil
}

func (e *GRPCEngine) Call(ctx context.Context, manifest domain.EngineManifest, inputFiles []domain.InputFile, command domain.Command) (domain.CallResult, error) {
	client, closeFn, err := e.connect(ctx, manifest, defaultStartTimeout)
	if err != nil {
		return domain.CallResult{}, err
	}
	defer closeFn()

	callCtx, cancel := e.callContext(ctx, defaultCallTimeout)
	defer cancel()

	request := &enginerpc.CallRequest{
		InputFiles: make([]enginerpc.File, 0, len(inputFiles)),
		Command:    []string(command),
	}
	for _, file := range inputFiles {
		request.InputFiles = append(request.InputFiles, enginerpc.File{Name: file.Name, Content: file.Content})
	}

	response, err := client.Call(callCtx, request)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return domain.CallResult{}, fmt.Errorf("%w: command %q", domain.ErrEngineTimeout, command.String())
		}
		return domain.CallResult{}, fmt.Errorf("call engine: %w", err)
	}

	outputFiles := make([]domain.OutputFile, 0, len(response.OutputFiles))
	for _, file := range response.OutputFiles {
		outputFiles = append(outputFiles, domain.OutputFile{Name: file.Name, Content: file.Content})
	}
	return domain.CallResult{
		Stdout:      response.Stdout,
		Stderr:      response.Stderr,
		ExitCode:    int(response.ExitCode),
		OutputFiles: outputFiles,
		InputFiles:  inputFiles,
		Command:     command,
	}, nil
}

func (e *GRPCEngine) connect(ctx context.Context, manifest domain.EngineManifest, startTimeout time.Duration) (enginerpc.MagickEngineClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  enginerpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          enginerpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     startTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start engine client: %w", err)
	}
	raw, err := rpcClient.Dispense(enginerpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense engine: %w", err)
	}
	typed, ok := raw.(enginerpc.MagickEngineClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("engine rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func (e *GRPCEngine) callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
