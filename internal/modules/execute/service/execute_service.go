package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"magickd/internal/modules/execute/domain"
	"magickd/internal/modules/execute/dto"
	executeout "magickd/internal/modules/execute/port/out"
	"magickd/internal/platform/clock"
	apperrors "magickd/internal/platform/errors"
	"magickd/internal/platform/id"
)

type ExecuteService struct {
	clk     clock.Clock
	ids     id.Generator
	store   executeout.EngineStore
	engine  executeout.Engine
	coercer executeout.FileCoercer
	history executeout.HistoryStore
}

func NewExecuteService(clk clock.Clock, ids id.Generator, store executeout.EngineStore, engine executeout.Engine, coercer executeout.FileCoercer, history executeout.HistoryStore) *ExecuteService {
	return &ExecuteService{clk: clk, ids: ids, store: store, engine: engine, coercer: coercer, history: history}
}

// Execute runs the full normalized batch strictly serially, threading each
// step's output files forward as the next step's available inputs. Step
// failures are data in the returned result, never errors; only configuration
// and infrastructure faults cross this boundary as errors.
func (s *ExecuteService) Execute(ctx context.Context, input dto.ExecuteInput) (dto.ExecuteResult, error) {
	commands, seed, err := normalize(input)
	if err != nil {
		return dto.ExecuteResult{}, err
	}
	manifest, err := s.runnableManifest(ctx)
	if err != nil {
		return dto.ExecuteResult{}, err
	}
	startedAt := s.clk.Now()

	pool := newOrderedSet[domain.InputFile]()
	for _, file := range seed {
		pool.put(file.Name, file)
	}
	outputs := newOrderedSet[domain.OutputFile]()
	results := make([]domain.StepResult, 0, len(commands))
	stdout := []string{}
	stderr := []string{}
	allErrors := []error{}

	// Strictly one step in flight: step N+1 depends on step N's outputs
	// having been absorbed into the pool.
	for _, command := range commands {
		step := s.executeStep(ctx, manifest, pool.values(), command)
		results = append(results, step)
		stdout = append(stdout, step.Stdout...)
		stderr = append(stderr, step.Stderr...)
		allErrors = append(allErrors, step.Errors...)
		if err := s.absorbOutputs(ctx, pool, step.OutputFiles); err != nil {
			return dto.ExecuteResult{}, err
		}
		for _, file := range step.OutputFiles {
			outputs.put(file.Name, file)
		}
	}

	exitCode := 0
	for _, step := range results {
		if step.ExitCode != 0 {
			exitCode = step.ExitCode
			break
		}
	}

	if s.history != nil {
		record := domain.BatchRecord{
			ID:         s.ids.New(),
			Commands:   commands,
			ExitCode:   exitCode,
			Stderr:     strings.Join(stderr, "\n"),
			StartedAt:  startedAt,
			FinishedAt: s.clk.Now(),
		}
		if err := s.history.RecordBatch(ctx, record); err != nil {
			return dto.ExecuteResult{}, fmt.Errorf("record batch: %w", err)
		}
	}

	return dto.ExecuteResult{
		Stdout:      stdout,
		Stderr:      stderr,
		ExitCode:    exitCode,
		OutputFiles: outputFilesToDTO(outputs.values()),
		Errors:      allErrors,
		Results:     stepResultsToDTO(results),
		Commands:    commandsToDTO(commands),
		InputFiles:  input.InputFiles,
	}, nil
}

// ExecuteOne runs exactly the first normalized command of the configuration.
func (s *ExecuteService) ExecuteOne(ctx context.Context, input dto.ExecuteInput) (dto.StepResult, error) {
	commands, seed, err := normalize(input)
	if err != nil {
		return dto.StepResult{}, err
	}
	if len(commands) == 0 {
		return dto.StepResult{}, fmt.Errorf("%w: empty batch", apperrors.ErrNoCommand)
	}
	manifest, err := s.runnableManifest(ctx)
	if err != nil {
		return dto.StepResult{}, err
	}
	step := s.executeStep(ctx, manifest, seed, commands[0])
	return stepResultToDTO(step), nil
}

// ExecuteAndReturnOutputFile runs the batch and returns the output file with
// the given name, or the first in final aggregate order when name is empty.
// A batch producing no output files yields nil without error.
func (s *ExecuteService) ExecuteAndReturnOutputFile(ctx context.Context, input dto.ExecuteInput, name string) (*dto.OutputFile, error) {
	result, err := s.Execute(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(result.OutputFiles) == 0 {
		return nil, nil
	}
	if name == "" {
		file := result.OutputFiles[0]
		return &file, nil
	}
	for _, file := range result.OutputFiles {
		if file.Name == name {
			return &file, nil
		}
	}
	return nil, nil
}

func (s *ExecuteService) Info(ctx context.Context) (dto.EngineInfo, error) {
	manifest, err := s.runnableManifest(ctx)
	if err != nil {
		return dto.EngineInfo{}, err
	}
	meta, err := s.engine.GetMetadata(ctx, manifest)
	if err != nil {
		return dto.EngineInfo{}, fmt.Errorf("get engine metadata: %w", err)
	}
	return dto.EngineInfo{Name: meta.Name, Version: meta.Version, Formats: meta.Formats}, nil
}

func (s *ExecuteService) Doctor(ctx context.Context) (dto.DoctorResult, error) {
	manifest, err := s.store.Load(ctx)
	if err != nil {
		return dto.DoctorResult{}, err
	}
	result := dto.DoctorResult{Name: manifest.Name}
	if err := manifest.Validate(); err != nil {
		result.Error = err.Error()
		return result, nil
	}
	result.BinaryReachable = fileExists(manifest.Binary)
	if result.BinaryReachable {
		result.ChecksumValid = checksumMatches(manifest.Binary, manifest.SHA256) == nil
	}
	if !result.BinaryReachable {
		result.Error = fmt.Sprintf("binary does not exist: %s", manifest.Binary)
		return result, nil
	}
	if !result.ChecksumValid {
		result.Error = "checksum mismatch"
		return result, nil
	}
	if manifest.Enabled && s.engine != nil {
		if err := s.engine.CheckLifecycle(ctx, manifest); err != nil {
			result.Error = err.Error()
		} else {
			result.LifecycleOK = true
		}
	}
	return result, nil
}

// executeStep never fails past its own boundary: engine faults and non-zero
// exit codes both come back as error slots on the step result.
func (s *ExecuteService) executeStep(ctx context.Context, manifest domain.EngineManifest, inputs []domain.InputFile, command domain.Command) domain.StepResult {
	result, err := s.engine.Call(ctx, manifest, inputs, command)
	if err != nil {
		fallback := domain.CallResult{
			Stdout:      []string{},
			Stderr:      result.Stderr,
			ExitCode:    result.ExitCode,
			OutputFiles: []domain.OutputFile{},
			InputFiles:  inputs,
			Command:     command,
		}
		if fallback.Stderr == nil {
			fallback.Stderr = []string{}
		}
		if fallback.ExitCode == 0 {
			fallback.ExitCode = 1
		}
		message := fmt.Errorf("error executing command %q: %v, exit code: %d, stderr: %s",
			command.String(), err, fallback.ExitCode, strings.Join(fallback.Stderr, "\n"))
		return domain.StepResult{CallResult: fallback, Errors: []error{message}}
	}
	if result.InputFiles == nil {
		result.InputFiles = inputs
	}
	if result.Command == nil {
		result.Command = command
	}
	if result.ExitCode != 0 {
		message := fmt.Errorf("command %q failed with exit code: %d, stderr: %s",
			command.String(), result.ExitCode, strings.Join(result.Stderr, "\n"))
		return domain.StepResult{CallResult: result, Errors: []error{message}}
	}
	return domain.StepResult{CallResult: result, Errors: []error{nil}}
}

// absorbOutputs coerces a step's output files to input form with unordered
// fan-out, then folds them into the pool (same name overwrites).
func (s *ExecuteService) absorbOutputs(ctx context.Context, pool *orderedSet[domain.InputFile], files []domain.OutputFile) error {
	if len(files) == 0 {
		return nil
	}
	inputs := make([]domain.InputFile, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file domain.OutputFile) {
			defer wg.Done()
			inputs[i], errs[i] = s.coercer.AsInput(ctx, file)
		}(i, file)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("absorb output file %q: %w", files[i].Name, err)
		}
	}
	for _, input := range inputs {
		pool.put(input.Name, input)
	}
	return nil
}

func (s *ExecuteService) runnableManifest(ctx context.Context) (domain.EngineManifest, error) {
	manifest, err := s.store.Load(ctx)
	if err != nil {
		return domain.EngineManifest{}, err
	}
	if err := manifest.Validate(); err != nil {
		return domain.EngineManifest{}, err
	}
	if !manifest.Enabled {
		return domain.EngineManifest{}, fmt.Errorf("%w: %s", domain.ErrEngineDisabled, manifest.Name)
	}
	if err := checksumMatches(manifest.Binary, manifest.SHA256); err != nil {
		return domain.EngineManifest{}, err
	}
	return manifest, nil
}

// normalize resolves the command union into the canonical batch. An empty
// union is a caller error; a script that parses to zero steps is a no-op
// batch.
func normalize(input dto.ExecuteInput) ([]domain.Command, []domain.InputFile, error) {
	seed := make([]domain.InputFile, 0, len(input.InputFiles))
	for _, file := range input.InputFiles {
		seed = append(seed, domain.InputFile{Name: file.Name, Content: file.Content})
	}
	commands := input.Commands
	switch {
	case len(commands.Batch) > 0:
		batch := make([]domain.Command, 0, len(commands.Batch))
		for _, argv := range commands.Batch {
			batch = append(batch, domain.Command(argv))
		}
		return batch, seed, nil
	case len(commands.Argv) > 0:
		return []domain.Command{domain.Command(commands.Argv)}, seed, nil
	case commands.Script != "":
		return domain.ParseScript(commands.Script), seed, nil
	default:
		return nil, nil, apperrors.ErrNoCommand
	}
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read engine binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	actual := hex.EncodeToString(hash[:])
	if actual != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// orderedSet is a name-keyed store that keeps first-write insertion order;
// overwriting an existing name keeps its original position.
type orderedSet[T any] struct {
	keys  []string
	items map[string]T
}

func newOrderedSet[T any]() *orderedSet[T] {
	return &orderedSet[T]{items: map[string]T{}}
}

func (s *orderedSet[T]) put(key string, item T) {
	if _, ok := s.items[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.items[key] = item
}

func (s *orderedSet[T]) values() []T {
	out := make([]T, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, s.items[key])
	}
	return out
}

func stepResultToDTO(step domain.StepResult) dto.StepResult {
	return dto.StepResult{
		Stdout:      step.Stdout,
		Stderr:      step.Stderr,
		ExitCode:    step.ExitCode,
		OutputFiles: outputFilesToDTO(step.OutputFiles),
		InputFiles:  inputFilesToDTO(step.InputFiles),
		Command:     []string(step.Command),
		Errors:      step.Errors,
	}
}

func stepResultsToDTO(steps []domain.StepResult) []dto.StepResult {
	out := make([]dto.StepResult, 0, len(steps))
	for _, step := range steps {
		out = append(out, stepResultToDTO(step))
	}
	return out
}

func outputFilesToDTO(files []domain.OutputFile) []dto.OutputFile {
	out := make([]dto.OutputFile, 0, len(files))
	for _, file := range files {
		out = append(out, dto.OutputFile{Name: file.Name, Content: file.Content})
	}
	return out
}

func inputFilesToDTO(files []domain.InputFile) []dto.InputFile {
	out := make([]dto.InputFile, 0, len(files))
	for _, file := range files {
		out = append(out, dto.InputFile{Name: file.Name, Content: file.Content})
	}
	return out
}

func commandsToDTO(commands []domain.Command) [][]string {
	out := make([][]string, 0, len(commands))
	for _, command := range commands {
		out = append(out, []string(command))
	}
	return out
}
