package dto

type RawFile struct {
	Name    string
	Content []byte
	Base64  string
	Path    string
}

type InputFile struct {
	Name    string
	Content []byte
}

// FileInfo is a registry listing entry: the tracked name and whether its
// conversion already completed.
type FileInfo struct {
	Name  string
	Ready bool
}
