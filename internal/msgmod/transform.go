package msgmod

import (
	"context"

	"go.uber.org/zap"

	"github.com/incognito-design/msgmod/internal/jsast"
)

// Transformer rewrites single modules.
type Transformer struct {
	opts Options
}

// NewTransformer validates opts and returns a Transformer.
func NewTransformer(opts Options) (*Transformer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Transformer{opts: opts}, nil
}

// Options returns the options of t.
func (t *Transformer) Options() Options { return t.opts }

// Result describes the outcome of one transformation.
type Result struct {
	Path     string
	Output   []byte
	Hijacked int  // rebound imports plus rehomed exports
	Injected bool // messages declaration added
	Changed  bool
}

// TransformProgram rewrites prog in place. Every original top-level
// statement is visited once, its specifiers checked against all targets;
// statements synthesized along the way are not revisited.
func (t *Transformer) TransformProgram(prog *jsast.Program) (*Result, error) {
	msgs, err := NewMessages(prog, t.opts.Root, t.opts.MessagesFileExtension, t.opts.Loader)
	if err != nil {
		return nil, err
	}

	body := append([]*jsast.Stmt(nil), prog.Body...)
	res := &Result{Path: prog.Path}
	for _, stmt := range body {
		targets := hijackedTargets(stmt, t.opts.Targets)
		if len(targets) == 0 {
			continue
		}
		var n int
		switch stmt.Kind {
		case jsast.KindImport:
			n, err = hijackNamedImport(prog, stmt, targets, msgs)
		case jsast.KindExportFrom:
			n, err = hijackNamedExport(prog, stmt, targets, msgs)
		}
		if err != nil {
			return nil, fileError(prog.Path, PhaseTransform, err)
		}
		res.Hijacked += n
	}

	if res.Injected, err = msgs.InjectIfMatchesFound(); err != nil {
		return nil, err
	}
	res.Changed = prog.Modified()
	return res, nil
}

// Transform parses src, rewrites it and prints the result. Sources without
// a match come back unchanged.
func (t *Transformer) Transform(ctx context.Context, path string, src []byte) (*Result, error) {
	if path == "" {
		return nil, ErrNoSourcePath
	}
	prog, err := jsast.Parse(ctx, path, src)
	if err != nil {
		return nil, fileError(path, PhaseParse, err)
	}
	res, err := t.TransformProgram(prog)
	if err != nil {
		return nil, err
	}
	res.Output = prog.Print()

	if res.Changed && t.opts.Verify {
		if err := Verify(ctx, path, res.Output); err != nil {
			return nil, err
		}
	}
	Logger().Debug("transformed",
		zap.String("file", path),
		zap.Int("hijacked", res.Hijacked),
		zap.Bool("injected", res.Injected))
	return res, nil
}
