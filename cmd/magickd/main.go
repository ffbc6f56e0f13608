package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"magickd/internal/bootstrap"
	executedto "magickd/internal/modules/execute/dto"
	imagehomedto "magickd/internal/modules/imagehome/dto"
	"magickd/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var workspacePath string

	root := &cobra.Command{
		Use:           "magickd",
		Short:         "Run image-processing command batches through an out-of-process engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&workspacePath, "workspace", ".", "workspace path")

	root.AddCommand(newRunCmd(&workspacePath))
	root.AddCommand(newExecCmd(&workspacePath))
	root.AddCommand(newEngineCmd(&workspacePath))
	root.AddCommand(newHomeCmd(&workspacePath))
	return root
}

func loadApp(workspacePath string) (*bootstrap.App, error) {
	cfg, err := config.New(workspacePath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

func newRunCmd(workspacePath *string) *cobra.Command {
	var scriptFile, outDir string
	var inputs []string

	run := &cobra.Command{
		Use:   "run [script]",
		Short: "Run a command script (newlines, # comments, \\ continuations)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*workspacePath)
			if err != nil {
				return err
			}
			script := ""
			if len(args) == 1 {
				script = args[0]
			}
			if scriptFile != "" {
				raw, err := os.ReadFile(scriptFile)
				if err != nil {
					return fmt.Errorf("read script file: %w", err)
				}
				script = string(raw)
			}
			inputFiles, err := loadInputFiles(inputs)
			if err != nil {
				return err
			}
			result, err := app.ExecuteCLI.Execute(context.Background(), executedto.ExecuteInput{
				InputFiles: inputFiles,
				Commands:   executedto.CommandInput{Script: script},
			})
			if err != nil {
				return err
			}
			return reportResult(cmd, result, outDir)
		},
	}
	run.Flags().StringVarP(&scriptFile, "file", "f", "", "read the script from a file")
	run.Flags().StringSliceVar(&inputs, "input", nil, "input file as name=path (repeatable)")
	run.Flags().StringVarP(&outDir, "out", "o", "", "directory to write output files into")
	return run
}

func newExecCmd(workspacePath *string) *cobra.Command {
	var outDir string
	var inputs []string

	exec := &cobra.Command{
		Use:   "exec -- <program> [args...]",
		Short: "Run a single command given as argument tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*workspacePath)
			if err != nil {
				return err
			}
			inputFiles, err := loadInputFiles(inputs)
			if err != nil {
				return err
			}
			result, err := app.ExecuteCLI.Execute(context.Background(), executedto.ExecuteInput{
				InputFiles: inputFiles,
				Commands:   executedto.CommandInput{Argv: args},
			})
			if err != nil {
				return err
			}
			return reportResult(cmd, result, outDir)
		},
	}
	exec.Flags().StringSliceVar(&inputs, "input", nil, "input file as name=path (repeatable)")
	exec.Flags().StringVarP(&outDir, "out", "o", "", "directory to write output files into")
	return exec
}

func newEngineCmd(workspacePath *string) *cobra.Command {
	engine := &cobra.Command{Use: "engine", Short: "Engine plugin commands"}

	engine.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show engine metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*workspacePath)
			if err != nil {
				return err
			}
			info, err := app.ExecuteCLI.Info(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s formats=%s\n", info.Name, info.Version, strings.Join(info.Formats, ","))
			return nil
		},
	})

	engine.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check engine manifest, binary, checksum, and lifecycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*workspacePath)
			if err != nil {
				return err
			}
			result, err := app.ExecuteCLI.Doctor(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s binary=%t checksum=%t lifecycle=%t", result.Name, result.BinaryReachable, result.ChecksumValid, result.LifecycleOK)
			if result.Error != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%s", result.Error)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	})
	return engine
}

func newHomeCmd(workspacePath *string) *cobra.Command {
	home := &cobra.Command{Use: "home", Short: "Named-file registry commands"}

	var name string
	addCmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a file under a name (default: base name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*workspacePath)
			if err != nil {
				return err
			}
			registered, err := app.HomeCLI.Register(context.Background(), imagehomedto.RawFile{Name: name, Path: args[0]})
			if err != nil {
				return err
			}
			if _, err := app.HomeCLI.Get(context.Background(), registered); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", registered)
			return nil
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "name to register the file under")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*workspacePath)
			if err != nil {
				return err
			}
			infos, err := app.HomeCLI.List(context.Background())
			if err != nil {
				return err
			}
			for _, info := range infos {
				state := "pending"
				if info.Ready {
					state = "ready"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", info.Name, state)
			}
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <name>...",
		Short: "Remove registered files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*workspacePath)
			if err != nil {
				return err
			}
			for _, removed := range app.HomeCLI.Remove(args) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", removed)
			}
			return nil
		},
	}

	builtinsCmd := &cobra.Command{
		Use:   "builtins",
		Short: "Register the engine's built-in image set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*workspacePath)
			if err != nil {
				return err
			}
			if err := app.HomeCLI.AddBuiltInImages(context.Background()); err != nil {
				return err
			}
			infos, err := app.HomeCLI.List(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %d files\n", len(infos))
			return nil
		},
	}

	home.AddCommand(addCmd, listCmd, rmCmd, builtinsCmd)
	return home
}

func loadInputFiles(pairs []string) ([]executedto.InputFile, error) {
	files := make([]executedto.InputFile, 0, len(pairs))
	for _, pair := range pairs {
		name, path, found := strings.Cut(pair, "=")
		if !found {
			path = pair
			name = filepath.Base(pair)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read input file %q: %w", path, err)
		}
		files = append(files, executedto.InputFile{Name: name, Content: content})
	}
	return files, nil
}

func reportResult(cmd *cobra.Command, result executedto.ExecuteResult, outDir string) error {
	for _, line := range result.Stdout {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	for _, line := range result.Stderr {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), line)
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create out dir: %w", err)
		}
		for _, file := range result.OutputFiles {
			target := filepath.Join(outDir, file.Name)
			if err := os.WriteFile(target, file.Content, 0o644); err != nil {
				return fmt.Errorf("write output file %q: %w", target, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
		}
	}
	if result.ExitCode != 0 {
		messages := []string{}
		for _, err := range result.Errors {
			if err != nil {
				messages = append(messages, err.Error())
			}
		}
		return fmt.Errorf("batch failed with exit code %d: %s", result.ExitCode, strings.Join(messages, "; "))
	}
	return nil
}
