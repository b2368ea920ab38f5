// Package jsast is a small host for rewriting ES module source text.
//
// A Program is the ordered sequence of top-level statements of one module.
// Statements keep their original source text; edits (renamed references,
// removed specifiers) are recorded against byte ranges and applied when the
// Program is printed. Synthesized statements carry generated text.
package jsast

import (
	"errors"
	"sort"
	"strings"
)

// ErrStmtNotFound is returned when an anchor statement is not in the body.
var ErrStmtNotFound = errors.New("jsast: statement not found in program body")

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// StmtKind classifies top-level statements.
type StmtKind int

const (
	KindOther      StmtKind = iota // any statement the rewriter does not inspect
	KindImport                     // import ... from '...'
	KindExportFrom                 // export { ... } from '...'
	KindExport                     // export { ... }
	KindComment                    // top-level comment
)

var kindNames = map[StmtKind]string{
	KindOther:      "other",
	KindImport:     "import",
	KindExportFrom: "export-from",
	KindExport:     "export",
	KindComment:    "comment",
}

func (k StmtKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// SpecifierKind distinguishes the three import specifier forms.
type SpecifierKind int

const (
	SpecNamed     SpecifierKind = iota // { a } or { a as b }
	SpecDefault                        // a
	SpecNamespace                      // * as a
)

// ImportSpecifier is one binding introduced by an import statement.
type ImportSpecifier struct {
	Kind     SpecifierKind
	Imported string // "default" for SpecDefault, "*" for SpecNamespace
	Local    string
	TypeOnly bool // import { type a }
	raw      string
}

func (s *ImportSpecifier) text() string {
	if s.raw != "" {
		return s.raw
	}
	if s.Imported == s.Local {
		return s.Local
	}
	return s.Imported + " as " + s.Local
}

// ExportSpecifier is one entry of an export clause.
type ExportSpecifier struct {
	Local    string
	Exported string
	TypeOnly bool
	raw      string

	start, end           int // byte span in the original source
	commaStart, commaEnd int // the comma following the specifier, -1 if none
	removed              bool
}

func (s *ExportSpecifier) text() string {
	if s.raw != "" {
		return s.raw
	}
	if s.Local == s.Exported {
		return s.Local
	}
	return s.Local + " as " + s.Exported
}

type edit struct {
	start, end int
	text       string
}

// Stmt is a top-level statement.
type Stmt struct {
	Kind StmtKind
	// Source is the module specifier of import and export-from statements.
	Source  string
	Quote   byte
	Imports []*ImportSpecifier
	Exports []*ExportSpecifier
	// Declares lists the module-level names a synthesized statement binds.
	Declares []string
	// Line is the 1-based line of the statement in the original source, 0
	// for synthesized statements.
	Line int

	synthetic bool
	text      string // synthesized text

	start, end int // byte span in the original source
	prevEnd    int // end of the original predecessor
	leading    string
	edits      []edit
	clause     []*ExportSpecifier // export specifiers as parsed
	dirty      bool               // specifiers removed
}

// Synthetic reports whether the statement was generated.
func (s *Stmt) Synthetic() bool { return s.synthetic }

func (s *Stmt) addEdit(start, end int, text string) {
	s.edits = append(s.edits, edit{start: start, end: end, text: text})
}

// RemoveExport removes the export specifier at index i. The specifier and
// its separating comma are cut from the original text; surrounding comments
// and attributes stay.
func (s *Stmt) RemoveExport(i int) {
	s.Exports[i].removed = true
	s.Exports = append(s.Exports[:i], s.Exports[i+1:]...)
	s.dirty = true
}

// removalEdits returns the deletions for removed clause specifiers. Each run
// of removed specifiers takes the comma after it, or, at the end of the
// clause, the comma of the preceding kept specifier.
func (s *Stmt) removalEdits() []edit {
	var out []edit
	c := s.clause
	for i := 0; i < len(c); i++ {
		if !c[i].removed {
			continue
		}
		j := i
		for j+1 < len(c) && c[j+1].removed {
			j++
		}
		switch {
		case c[j].commaEnd >= 0:
			out = append(out, edit{start: c[i].start, end: c[j].commaEnd})
		case i > 0 && c[i-1].commaStart >= 0:
			out = append(out, edit{start: c[i-1].commaStart, end: c[j].end})
		default:
			out = append(out, edit{start: c[i].start, end: c[j].end})
		}
		i = j
	}
	return out
}

// Text returns the statement as it will be printed, without leading trivia.
func (s *Stmt) Text(src []byte) string {
	if s.synthetic {
		return s.text
	}
	edits := append([]edit(nil), s.edits...)
	if s.dirty {
		edits = append(edits, s.removalEdits()...)
	}
	if len(edits) == 0 {
		return string(src[s.start:s.end])
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	pos := s.start
	for _, e := range edits {
		b.Write(src[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.Write(src[pos:s.end])
	return b.String()
}

func quote(str string, q byte) string {
	if q != '"' {
		q = '\''
	}
	return string(q) + str + string(q)
}

// ---------------------------------------------------------------------------
// Synthesized statements
// ---------------------------------------------------------------------------

// NewConstDecl returns `const name = init;`.
func NewConstDecl(name, init string) *Stmt {
	return &Stmt{
		Kind:      KindOther,
		Declares:  []string{name},
		synthetic: true,
		text:      "const " + name + " = " + init + ";",
	}
}

// NewImportDecl returns `import { a as b } from 'source';` for named specifiers.
func NewImportDecl(source string, q byte, specs ...*ImportSpecifier) *Stmt {
	parts := make([]string, len(specs))
	declares := make([]string, len(specs))
	for i, spec := range specs {
		parts[i] = spec.text()
		declares[i] = spec.Local
	}
	return &Stmt{
		Kind:      KindImport,
		Source:    source,
		Quote:     q,
		Imports:   specs,
		Declares:  declares,
		synthetic: true,
		text:      "import { " + strings.Join(parts, ", ") + " } from " + quote(source, q) + ";",
	}
}

// NewExportDecl returns `export { a as b };`.
func NewExportDecl(specs ...*ExportSpecifier) *Stmt {
	parts := make([]string, len(specs))
	for i, spec := range specs {
		parts[i] = spec.text()
	}
	return &Stmt{
		Kind:      KindExport,
		Exports:   specs,
		synthetic: true,
		text:      "export { " + strings.Join(parts, ", ") + " };",
	}
}

// ---------------------------------------------------------------------------
// Program
// ---------------------------------------------------------------------------

// Program is one parsed module.
type Program struct {
	// Path is the absolute path of the module, empty when unknown.
	Path string
	Body []*Stmt

	src         []byte
	preambleEnd int // end of hashbang / directive prologue
	trailer     int // start of trailing trivia
	scope       *Scope
}

// Source returns the original module text.
func (p *Program) Source() []byte { return p.src }

// Scope returns the module scope.
func (p *Program) Scope() *Scope { return p.scope }

// Index returns the position of s in the body, or -1.
func (p *Program) Index(s *Stmt) int {
	for i, b := range p.Body {
		if b == s {
			return i
		}
	}
	return -1
}

// InsertAfter inserts stmts, in order, right after anchor.
func (p *Program) InsertAfter(anchor *Stmt, stmts ...*Stmt) error {
	i := p.Index(anchor)
	if i < 0 {
		return ErrStmtNotFound
	}
	body := make([]*Stmt, 0, len(p.Body)+len(stmts))
	body = append(body, p.Body[:i+1]...)
	body = append(body, stmts...)
	body = append(body, p.Body[i+1:]...)
	p.Body = body
	return nil
}

// Prepend inserts stmts at the beginning of the body.
func (p *Program) Prepend(stmts ...*Stmt) {
	p.Body = append(append([]*Stmt{}, stmts...), p.Body...)
}

// Remove deletes s from the body.
func (p *Program) Remove(s *Stmt) error {
	i := p.Index(s)
	if i < 0 {
		return ErrStmtNotFound
	}
	p.Body = append(p.Body[:i], p.Body[i+1:]...)
	return nil
}

// Modified reports whether printing would differ from the original source.
func (p *Program) Modified() bool {
	prevEnd := p.preambleEnd
	for _, s := range p.Body {
		if s.synthetic || s.dirty || len(s.edits) > 0 || s.prevEnd != prevEnd {
			return true
		}
		prevEnd = s.end
	}
	return prevEnd != p.trailer
}

// Print renders the program. An unmodified program prints its original
// source byte for byte.
func (p *Program) Print() []byte {
	if !p.Modified() {
		return p.src
	}
	var b strings.Builder
	b.Grow(len(p.src) + 256)
	b.Write(p.src[:p.preambleEnd])

	lastEnd := p.preambleEnd
	for _, s := range p.Body {
		if s.synthetic {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(s.text)
			lastEnd = -1
			continue
		}
		switch {
		case s.prevEnd == lastEnd || b.Len() == 0:
			b.WriteString(s.leading)
		case strings.Contains(s.leading, "\n"):
			b.WriteString(s.leading)
		default:
			b.WriteByte('\n')
		}
		b.WriteString(s.Text(p.src))
		lastEnd = s.end
	}
	b.Write(p.src[p.trailer:])
	return []byte(b.String())
}
