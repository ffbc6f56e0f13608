package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"magickd/internal/modules/execute/domain"
	"magickd/internal/modules/execute/dto"
	executeout "magickd/internal/modules/execute/port/out"
	"magickd/internal/modules/execute/service"
	"magickd/internal/platform/clock"
	apperrors "magickd/internal/platform/errors"
	"magickd/internal/platform/id"
)

type fakeEngineStore struct {
	manifest domain.EngineManifest
}

func (s fakeEngineStore) Load(context.Context) (domain.EngineManifest, error) {
	return s.manifest, nil
}

// fakeEngine mimics the reference engine: "convert <src> <dst>" copies the
// source (pseudo-sources like rose: included) into an output file, "identify
// <name>" prints a line, "exit <n>" fails with that code, and "boom" faults
// at the transport level.
type fakeEngine struct{}

var pseudoSources = map[string][]byte{
	"rose:":    []byte("rose-bytes"),
	"logo:":    []byte("logo-bytes"),
	"wizard:":  []byte("wizard-bytes"),
	"granite:": []byte("granite-bytes"),
}

func (fakeEngine) CheckLifecycle(context.Context, domain.EngineManifest) error { return nil }

func (fakeEngine) GetMetadata(context.Context, domain.EngineManifest) (domain.Metadata, error) {
	return domain.Metadata{Name: "fake-engine", Version: "1", Formats: []string{"png"}}, nil
}

func (fakeEngine) Call(_ context.Context, _ domain.EngineManifest, inputs []domain.InputFile, command domain.Command) (domain.CallResult, error) {
	base := domain.CallResult{
		Stdout:      []string{},
		Stderr:      []string{},
		OutputFiles: []domain.OutputFile{},
		InputFiles:  inputs,
		Command:     command,
	}
	if len(command) == 0 {
		base.ExitCode = 1
		base.Stderr = []string{"no command"}
		return base, nil
	}
	switch command[0] {
	case "boom":
		return domain.CallResult{}, errors.New("engine crashed")
	case "exit":
		code, _ := strconv.Atoi(command[1])
		base.ExitCode = code
		base.Stderr = []string{"forced failure " + command[1]}
		return base, nil
	case "convert":
		source, target := command[1], command[len(command)-1]
		content, ok := resolve(source, inputs)
		if !ok {
			base.ExitCode = 1
			base.Stderr = []string{fmt.Sprintf("convert: unable to open image '%s'", source)}
			return base, nil
		}
		base.OutputFiles = []domain.OutputFile{{Name: target, Content: append([]byte("converted:"), content...)}}
		return base, nil
	case "identify":
		name := command[1]
		content, ok := resolve(name, inputs)
		if !ok {
			base.ExitCode = 1
			base.Stderr = []string{fmt.Sprintf("identify: unable to open image '%s'", name)}
			return base, nil
		}
		base.Stdout = []string{fmt.Sprintf("%s PNG %dB", name, len(content))}
		return base, nil
	default:
		base.ExitCode = 127
		base.Stderr = []string{fmt.Sprintf("magick: unrecognized command %q", command[0])}
		return base, nil
	}
}

func resolve(name string, inputs []domain.InputFile) ([]byte, bool) {
	if content, ok := pseudoSources[name]; ok {
		return content, true
	}
	for _, file := range inputs {
		if file.Name == name {
			return file.Content, true
		}
	}
	return nil, false
}

type fakeCoercer struct{}

func (fakeCoercer) AsInput(_ context.Context, file domain.OutputFile) (domain.InputFile, error) {
	return domain.InputFile{Name: file.Name, Content: file.Content}, nil
}

type failingCoercer struct{}

func (failingCoercer) AsInput(context.Context, domain.OutputFile) (domain.InputFile, error) {
	return domain.InputFile{}, errors.New("coercion refused")
}

type recordingHistory struct {
	records []domain.BatchRecord
}

func (h *recordingHistory) RecordBatch(_ context.Context, record domain.BatchRecord) error {
	h.records = append(h.records, record)
	return nil
}

func newService(t *testing.T, history *recordingHistory) *service.ExecuteService {
	t.Helper()
	var store executeout.HistoryStore
	if history != nil {
		store = history
	}
	return service.NewExecuteService(
		clock.SystemClock{},
		id.RandomHex{},
		fakeEngineStore{manifest: manifestWithBinary(t, true)},
		fakeEngine{},
		fakeCoercer{},
		store,
	)
}

func manifestWithBinary(t *testing.T, enabled bool) domain.EngineManifest {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "fake-engine")
	if err := os.WriteFile(binPath, []byte("not-a-real-engine"), 0o755); err != nil {
		t.Fatalf("write engine binary: %v", err)
	}
	hash := sha256.Sum256([]byte("not-a-real-engine"))
	return domain.EngineManifest{
		Name:    "fake-engine",
		Version: "1.0.0",
		Binary:  binPath,
		SHA256:  hex.EncodeToString(hash[:]),
		Enabled: enabled,
	}
}

func TestExecuteShapeEquivalence(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	inputs := []dto.ExecuteInput{
		{Commands: dto.CommandInput{Argv: []string{"convert", "rose:", "out.png"}}},
		{Commands: dto.CommandInput{Batch: [][]string{{"convert", "rose:", "out.png"}}}},
		{Commands: dto.CommandInput{Script: "convert rose: out.png"}},
	}
	var commands [][]string
	for i, input := range inputs {
		result, err := svc.Execute(context.Background(), input)
		if err != nil {
			t.Fatalf("execute shape %d: %v", i, err)
		}
		if len(result.Results) != 1 {
			t.Fatalf("shape %d: expected one step, got %d", i, len(result.Results))
		}
		commands = append(commands, result.Results[0].Command)
	}
	if !reflect.DeepEqual(commands[0], commands[1]) || !reflect.DeepEqual(commands[1], commands[2]) {
		t.Fatalf("shapes normalized differently: %v", commands)
	}
}

func TestExecuteThreadsOutputFilesForward(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	result, err := svc.Execute(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Script: "convert rose: a.png\nconvert a.png b.png"},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected success, got exit code %d, errors %v", result.ExitCode, result.Errors)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(result.Results))
	}
	secondInputs := result.Results[1].InputFiles
	found := false
	for _, file := range secondInputs {
		if file.Name == "a.png" {
			found = true
		}
	}
	if !found {
		t.Fatalf("step 2 must see step 1's output as input, got %v", secondInputs)
	}
	names := outputNames(result)
	if !reflect.DeepEqual(names, []string{"a.png", "b.png"}) {
		t.Fatalf("unexpected aggregate output files: %v", names)
	}
}

func TestExecuteFailedStepStarvesLaterSteps(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	result, err := svc.Execute(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Script: "convert missing.png a.png\nconvert a.png b.png"},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Results[0].ExitCode == 0 {
		t.Fatalf("step 1 should fail on a missing source")
	}
	if result.Results[1].ExitCode == 0 {
		t.Fatalf("step 2 should fail because step 1 produced nothing")
	}
	if result.ExitCode != result.Results[0].ExitCode {
		t.Fatalf("aggregate exit code must be the first failure's")
	}
}

func TestExecuteFirstFailureWinsAndAllStepsRun(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	result, err := svc.Execute(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Batch: [][]string{
			{"convert", "rose:", "a.png"},
			{"exit", "2"},
			{"convert", "rose:", "c.png"},
		}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.Results) != 3 {
		t.Fatalf("mid-batch failure must not short-circuit: got %d results", len(result.Results))
	}
	if result.ExitCode != 2 {
		t.Fatalf("aggregate exit code must be the first non-zero (2), got %d", result.ExitCode)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("expected one error slot per step, got %d", len(result.Errors))
	}
	if result.Errors[0] != nil || result.Errors[2] != nil {
		t.Fatalf("successful steps must carry nil error slots: %v", result.Errors)
	}
	if result.Errors[1] == nil || !strings.Contains(result.Errors[1].Error(), "forced failure 2") {
		t.Fatalf("failing step's stderr must appear in its error: %v", result.Errors[1])
	}
}

func TestExecuteAggregatesStdoutStderrInOrder(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	result, err := svc.Execute(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Script: "identify rose:\nidentify logo:"},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.Stdout) != 2 || !strings.HasPrefix(result.Stdout[0], "rose:") || !strings.HasPrefix(result.Stdout[1], "logo:") {
		t.Fatalf("stdout must concatenate in execution order: %v", result.Stdout)
	}
}

func TestExecuteLastWriteWinsOnOutputNames(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	result, err := svc.Execute(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Batch: [][]string{
			{"convert", "rose:", "same.png"},
			{"convert", "logo:", "other.png"},
			{"convert", "logo:", "same.png"},
		}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	names := outputNames(result)
	if !reflect.DeepEqual(names, []string{"same.png", "other.png"}) {
		t.Fatalf("overwritten name must keep its first-write position: %v", names)
	}
	for _, file := range result.OutputFiles {
		if file.Name == "same.png" && !strings.Contains(string(file.Content), "logo-bytes") {
			t.Fatalf("later step's content must win for same.png: %q", file.Content)
		}
	}
}

func TestExecuteCallerInputsAvailableToAllSteps(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	result, err := svc.Execute(context.Background(), dto.ExecuteInput{
		InputFiles: []dto.InputFile{{Name: "seed.png", Content: []byte("seed-bytes")}},
		Commands:   dto.CommandInput{Script: "convert seed.png copy.png"},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected success, got %d: %v", result.ExitCode, result.Errors)
	}
	if len(result.InputFiles) != 1 || result.InputFiles[0].Name != "seed.png" {
		t.Fatalf("result must echo the original caller inputs: %v", result.InputFiles)
	}
}

func TestExecuteNoCommandIsConfigurationError(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	_, err := svc.Execute(context.Background(), dto.ExecuteInput{})
	if !errors.Is(err, apperrors.ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
}

func TestExecuteWhitespaceScriptIsNoOpBatch(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	result, err := svc.Execute(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Script: "  \n# nothing to do\n"},
	})
	if err != nil {
		t.Fatalf("a zero-step batch is a no-op, not an error: %v", err)
	}
	if result.ExitCode != 0 || len(result.Results) != 0 || len(result.Commands) != 0 {
		t.Fatalf("unexpected no-op result: %+v", result)
	}
}

func TestExecuteOneRunsOnlyFirstCommand(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	step, err := svc.ExecuteOne(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Script: "convert rose: a.png\nexit 3"},
	})
	if err != nil {
		t.Fatalf("execute one: %v", err)
	}
	if step.ExitCode != 0 {
		t.Fatalf("first command should succeed, got %d", step.ExitCode)
	}
	if !reflect.DeepEqual(step.Command, []string{"convert", "rose:", "a.png"}) {
		t.Fatalf("unexpected command: %v", step.Command)
	}
	if len(step.Errors) != 1 || step.Errors[0] != nil {
		t.Fatalf("success must carry a single nil error slot: %v", step.Errors)
	}
}

func TestExecuteOneCapturesNonZeroExit(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	step, err := svc.ExecuteOne(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Argv: []string{"exit", "7"}},
	})
	if err != nil {
		t.Fatalf("step failures are data, not errors: %v", err)
	}
	if step.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", step.ExitCode)
	}
	if len(step.Errors) != 1 || step.Errors[0] == nil {
		t.Fatalf("expected one error slot: %v", step.Errors)
	}
	message := step.Errors[0].Error()
	if !strings.Contains(message, "7") || !strings.Contains(message, "forced failure 7") {
		t.Fatalf("error must embed exit code and stderr: %s", message)
	}
}

func TestExecuteOneCapturesEngineFault(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	step, err := svc.ExecuteOne(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Argv: []string{"boom"}},
	})
	if err != nil {
		t.Fatalf("engine faults are data, not errors: %v", err)
	}
	if step.ExitCode != 1 {
		t.Fatalf("faults default to exit code 1, got %d", step.ExitCode)
	}
	if len(step.Errors) != 1 || step.Errors[0] == nil || !strings.Contains(step.Errors[0].Error(), "engine crashed") {
		t.Fatalf("fault message must embed the underlying error: %v", step.Errors)
	}
}

func TestExecuteOneEmptyBatchIsError(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	_, err := svc.ExecuteOne(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Script: "# nothing"},
	})
	if !errors.Is(err, apperrors.ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand for an empty batch, got %v", err)
	}
}

func TestExecuteAndReturnOutputFile(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)

	file, err := svc.ExecuteAndReturnOutputFile(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Script: "convert rose: a.png\nconvert logo: b.png"},
	}, "")
	if err != nil {
		t.Fatalf("execute and return: %v", err)
	}
	if file == nil || file.Name != "a.png" {
		t.Fatalf("expected first output file a.png, got %+v", file)
	}

	file, err = svc.ExecuteAndReturnOutputFile(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Script: "convert rose: a.png\nconvert logo: b.png"},
	}, "b.png")
	if err != nil {
		t.Fatalf("execute and return named: %v", err)
	}
	if file == nil || file.Name != "b.png" {
		t.Fatalf("expected named output file b.png, got %+v", file)
	}

	file, err = svc.ExecuteAndReturnOutputFile(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Argv: []string{"identify", "rose:"}},
	}, "")
	if err != nil {
		t.Fatalf("execute and return none: %v", err)
	}
	if file != nil {
		t.Fatalf("a batch without output files must yield nil, got %+v", file)
	}
}

func TestExecuteRecordsHistory(t *testing.T) {
	t.Parallel()
	history := &recordingHistory{}
	svc := newService(t, history)
	_, err := svc.Execute(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Script: "convert rose: a.png\nexit 5"},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(history.records) != 1 {
		t.Fatalf("expected one history record, got %d", len(history.records))
	}
	record := history.records[0]
	if record.ExitCode != 5 {
		t.Fatalf("record must carry the aggregate exit code, got %d", record.ExitCode)
	}
	if len(record.Commands) != 2 {
		t.Fatalf("record must carry the normalized batch, got %v", record.Commands)
	}
	if record.ID == "" {
		t.Fatalf("record must carry an id")
	}
}

func TestExecuteRejectsDisabledEngine(t *testing.T) {
	t.Parallel()
	manifest := manifestWithBinary(t, false)
	svc := service.NewExecuteService(clock.SystemClock{}, id.RandomHex{},
		fakeEngineStore{manifest: manifest}, fakeEngine{}, fakeCoercer{}, nil)
	_, err := svc.Execute(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Argv: []string{"convert", "rose:", "a.png"}},
	})
	if !errors.Is(err, domain.ErrEngineDisabled) {
		t.Fatalf("expected ErrEngineDisabled, got %v", err)
	}
}

func TestExecuteRejectsChecksumMismatch(t *testing.T) {
	t.Parallel()
	manifest := manifestWithBinary(t, true)
	manifest.SHA256 = strings.Repeat("0", 64)
	svc := service.NewExecuteService(clock.SystemClock{}, id.RandomHex{},
		fakeEngineStore{manifest: manifest}, fakeEngine{}, fakeCoercer{}, nil)
	_, err := svc.Execute(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Argv: []string{"convert", "rose:", "a.png"}},
	})
	if !errors.Is(err, domain.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestExecuteSurfacesCoercionFault(t *testing.T) {
	t.Parallel()
	manifest := manifestWithBinary(t, true)
	svc := service.NewExecuteService(clock.SystemClock{}, id.RandomHex{},
		fakeEngineStore{manifest: manifest}, fakeEngine{}, failingCoercer{}, nil)
	_, err := svc.Execute(context.Background(), dto.ExecuteInput{
		Commands: dto.CommandInput{Argv: []string{"convert", "rose:", "a.png"}},
	})
	if err == nil || !strings.Contains(err.Error(), "coercion refused") {
		t.Fatalf("coercion faults are infrastructure errors, got %v", err)
	}
}

func TestDoctorReportsChecksumMismatch(t *testing.T) {
	t.Parallel()
	manifest := manifestWithBinary(t, true)
	manifest.SHA256 = strings.Repeat("0", 64)
	svc := service.NewExecuteService(clock.SystemClock{}, id.RandomHex{},
		fakeEngineStore{manifest: manifest}, nil, fakeCoercer{}, nil)
	result, err := svc.Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !result.BinaryReachable {
		t.Fatalf("binary should be reachable")
	}
	if result.ChecksumValid {
		t.Fatalf("expected checksum mismatch")
	}
}

func TestInfoReportsEngineMetadata(t *testing.T) {
	t.Parallel()
	svc := newService(t, nil)
	info, err := svc.Info(context.Background())
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Name != "fake-engine" || len(info.Formats) == 0 {
		t.Fatalf("unexpected engine info: %+v", info)
	}
}

func outputNames(result dto.ExecuteResult) []string {
	names := make([]string, 0, len(result.OutputFiles))
	for _, file := range result.OutputFiles {
		names = append(names, file.Name)
	}
	return names
}
