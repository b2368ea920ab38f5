package msgmod

import (
	"go.uber.org/zap"

	"github.com/incognito-design/msgmod/internal/jsast"
	"github.com/incognito-design/msgmod/internal/loader"
)

// Messages coordinates the injected messages of one module. The messages
// declaration, and the file-system scan behind it, only happen when a
// hijack asked for the variable.
type Messages struct {
	prog           *jsast.Program
	root           string
	sourceFilePath string
	ext            string
	load           loader.Func

	requestCount int
	variableName string
}

// NewMessages prepares the injected messages of prog. It fails with
// ErrNoSourcePath when the module path is unknown.
func NewMessages(prog *jsast.Program, root, ext string, load loader.Func) (*Messages, error) {
	if prog.Path == "" {
		return nil, ErrNoSourcePath
	}
	return &Messages{
		prog:           prog,
		root:           root,
		sourceFilePath: relativeSourcePath(root, prog.Path),
		ext:            ext,
		load:           load,
	}, nil
}

// SourceFilePath returns the root-relative path recorded in the injected data.
func (m *Messages) SourceFilePath() string { return m.sourceFilePath }

// VariableName returns the module-unique name of the messages variable and
// records that it is needed.
func (m *Messages) VariableName() string {
	m.requestCount++
	if m.variableName == "" {
		m.variableName = m.prog.Scope().GenerateUID(messagesSeed)
	}
	return m.variableName
}

// Requested reports how many times the variable was asked for.
func (m *Messages) Requested() int { return m.requestCount }

// InjectIfMatchesFound declares the messages variable as the first statement
// of the module when it was requested. It reports whether it injected.
func (m *Messages) InjectIfMatchesFound() (bool, error) {
	if m.requestCount == 0 {
		return false, nil
	}
	literal, err := AssembleInjectedMessages(m.root, m.sourceFilePath, m.ext, m.load)
	if err != nil {
		return false, fileError(m.prog.Path, PhaseLoad, err)
	}
	decl := jsast.NewConstDecl(m.variableName, literal)
	m.prog.Prepend(decl)
	m.prog.Scope().Register(decl)

	Logger().Debug("injected messages",
		zap.String("file", m.sourceFilePath),
		zap.String("variable", m.variableName),
		zap.Int("requests", m.requestCount))
	return true, nil
}
