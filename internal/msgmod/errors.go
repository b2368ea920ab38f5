package msgmod

import (
	"errors"
	"fmt"
)

// ErrNoSourcePath is returned when the path of the module being compiled
// is unknown. Nothing is rewritten for such a module.
var ErrNoSourcePath = errors.New("msgmod: error getting the name of the file during compilation")

// Phase indicates where processing of a file failed.
type Phase string

const (
	PhaseRead      Phase = "read"
	PhaseParse     Phase = "parse"
	PhaseLoad      Phase = "load"      // message file loading
	PhaseTransform Phase = "transform" // rewriting
	PhaseVerify    Phase = "verify"    // re-parsing the output
	PhaseWrite     Phase = "write"
)

// FileError reports a failure while processing one source file.
type FileError struct {
	Path  string
	Phase Phase
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("msgmod: %s %s: %v", e.Phase, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func fileError(path string, phase Phase, err error) error {
	var fe *FileError
	if errors.As(err, &fe) {
		return err
	}
	return &FileError{Path: path, Phase: phase, Err: err}
}
