package domain

import "fmt"

// RawFile is any caller-supplied file representation: inline content, a
// base64 payload, or a path on disk. Coercion to InputFile happens behind
// the InputCoercer port.
type RawFile struct {
	Name    string
	Content []byte
	Base64  string
	Path    string
}

func (f RawFile) Validate() error {
	if f.Name == "" && f.Path == "" {
		return fmt.Errorf("file name is required")
	}
	if len(f.Content) == 0 && f.Base64 == "" && f.Path == "" {
		return fmt.Errorf("file %q has no content", f.Name)
	}
	return nil
}

// InputFile is the canonical named-file record the registry tracks.
type InputFile struct {
	Name    string
	Content []byte
}

// FileStatus is a registry listing entry.
type FileStatus struct {
	Name  string
	Ready bool
}

// BuiltInNames lists the engine's pseudo-images materialized by
// AddBuiltInImages. Each name maps to the pseudo-source "<name>:".
var BuiltInNames = []string{"rose", "logo", "wizard", "granite", "netscape"}
