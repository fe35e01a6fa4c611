package cwl

// FileBinding is a CWL File object in a job order.
type FileBinding struct {
	Class string `yaml:"class" json:"class"`
	Path  string `yaml:"path" json:"path"`
}

// File returns a File binding for path.
func File(path string) FileBinding {
	return FileBinding{Class: "File", Path: path}
}

// Bindings is an ordered job order mapping workflow input ids to files.
type Bindings = Entries[FileBinding]
