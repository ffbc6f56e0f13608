package main

import (
	"context"
	"fmt"

	enginerpc "magickd/internal/modules/execute/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

// The reference engine is a deterministic stand-in for a real ImageMagick
// binary: it understands "convert" and "identify", resolves the classic
// pseudo-sources (rose:, logo:, ...), and reports failures through exit
// codes and stderr the way the real engine does.
type server struct{}

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

var pseudoSources = map[string]struct{}{
	"rose:":     {},
	"logo:":     {},
	"wizard:":   {},
	"granite:":  {},
	"netscape:": {},
}

func (s *server) GetMetadata(_ context.Context, _ *enginerpc.Empty) (*enginerpc.Metadata, error) {
	return &enginerpc.Metadata{
		Name:    "reference-engine",
		Version: "1.0.0",
		Formats: []string{"png", "gif", "jpeg"},
	}, nil
}

func (s *server) Call(_ context.Context, in *enginerpc.CallRequest) (*enginerpc.CallResponse, error) {
	if len(in.Command) == 0 {
		return failure("magick: no command given"), nil
	}
	switch in.Command[0] {
	case "convert":
		return s.convert(in), nil
	case "identify":
		return s.identify(in), nil
	default:
		return failure(fmt.Sprintf("magick: unrecognized command %q", in.Command[0])), nil
	}
}

func (s *server) convert(in *enginerpc.CallRequest) *enginerpc.CallResponse {
	args := in.Command[1:]
	if len(args) < 2 {
		return failure("convert: usage: convert <source> [options...] <target>")
	}
	source := args[0]
	target := args[len(args)-1]
	content, ok := resolveSource(source, in.InputFiles)
	if !ok {
		return failure(fmt.Sprintf("convert: unable to open image '%s': No such file or directory", source))
	}
	return &enginerpc.CallResponse{
		Stdout:      []string{},
		Stderr:      []string{},
		ExitCode:    0,
		OutputFiles: []enginerpc.File{{Name: target, Content: content}},
	}
}

func (s *server) identify(in *enginerpc.CallRequest) *enginerpc.CallResponse {
	args := in.Command[1:]
	if len(args) == 0 {
		return failure("identify: usage: identify <file>...")
	}
	stdout := []string{}
	for _, name := range args {
		content, ok := resolveSource(name, in.InputFiles)
		if !ok {
			return failure(fmt.Sprintf("identify: unable to open image '%s': No such file or directory", name))
		}
		stdout = append(stdout, fmt.Sprintf("%s PNG 64x64 64x64+0+0 8-bit sRGB %dB", name, len(content)))
	}
	return &enginerpc.CallResponse{Stdout: stdout, Stderr: []string{}, ExitCode: 0, OutputFiles: []enginerpc.File{}}
}

func resolveSource(name string, inputFiles []enginerpc.File) ([]byte, bool) {
	if _, ok := pseudoSources[name]; ok {
		return append(append([]byte{}, pngSignature...), []byte(name)...), true
	}
	for _, file := range inputFiles {
		if file.Name == name {
			return file.Content, true
		}
	}
	return nil, false
}

func failure(message string) *enginerpc.CallResponse {
	return &enginerpc.CallResponse{
		Stdout:      []string{},
		Stderr:      []string{message},
		ExitCode:    1,
		OutputFiles: []enginerpc.File{},
	}
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: enginerpc.HandshakeConfig,
		Plugins:         enginerpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
