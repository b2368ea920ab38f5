package jsast

import (
	"strconv"
	"strings"
)

// BindingKind records how a name was declared.
type BindingKind int

const (
	BindImport BindingKind = iota
	BindVar
	BindLet
	BindConst
	BindFunction
	BindClass
	BindParam
	BindCatch
	BindSynthetic
)

// RefForm describes the syntactic position of a reference, which decides
// how a rename is spelled.
type RefForm int

const (
	RefPlain      RefForm = iota // getMessages(...)
	RefShorthand                 // { getMessages }
	RefExportName                // export { getMessages }
)

// Reference is one use site of a binding.
type Reference struct {
	Name       string
	Form       RefForm
	Start, End int // byte span of the identifier
	Stmt       *Stmt
	binding    *Binding
}

// Binding is a declared name plus its reference sites.
type Binding struct {
	Name       string
	Kind       BindingKind
	Stmt       *Stmt // top-level statement holding the declaration
	References []*Reference
	scope      *Scope
}

// Scope is a lexical scope. The module scope doubles as the rename and
// declaration-registration service used by the rewriter.
type Scope struct {
	parent   *Scope
	children []*Scope
	function bool // var declarations hoist here
	bindings map[string]*Binding

	// module scope only
	names   map[string]bool          // every name seen in the file plus generated ones
	pending map[string][]*Reference  // renamed references awaiting a registered declaration
}

func newScope(parent *Scope, function bool) *Scope {
	s := &Scope{parent: parent, function: function, bindings: make(map[string]*Binding)}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

func (s *Scope) module() *Scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

func (s *Scope) functionScope() *Scope {
	for !s.function && s.parent != nil {
		s = s.parent
	}
	return s
}

func (s *Scope) declare(name string, kind BindingKind, stmt *Stmt) *Binding {
	if b, ok := s.bindings[name]; ok {
		return b // redeclaration (var, function overloads) keeps the first site
	}
	b := &Binding{Name: name, Kind: kind, Stmt: stmt, scope: s}
	s.bindings[name] = b
	s.module().names[name] = true
	return b
}

func (s *Scope) resolve(name string) *Binding {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			return b
		}
	}
	return nil
}

// Binding returns the binding visible as name from s, or nil.
func (s *Scope) Binding(name string) *Binding {
	return s.resolve(name)
}

// OwnBinding returns the binding declared directly in s, or nil.
func (s *Scope) OwnBinding(name string) *Binding {
	return s.bindings[name]
}

// HasName reports whether name is bound, referenced, or generated anywhere
// in the module.
func (s *Scope) HasName(name string) bool {
	return s.module().names[name]
}

// GenerateUID returns a module-unique identifier derived from seed:
// _seed, _seed2, _seed3, ...
func (s *Scope) GenerateUID(seed string) string {
	m := s.module()
	base := "_" + strings.TrimLeft(toIdentifier(seed), "_")
	for i := 1; ; i++ {
		name := base
		if i > 1 {
			name += strconv.Itoa(i)
		}
		if !m.names[name] {
			m.names[name] = true
			return name
		}
	}
}

// Rename rewrites the reference site ref to newName. The reference moves
// from its binding to the declaration later registered under newName.
func (s *Scope) Rename(ref *Reference, newName string) {
	if ref.Stmt == nil {
		return
	}
	switch ref.Form {
	case RefShorthand:
		ref.Stmt.addEdit(ref.Start, ref.End, ref.Name+": "+newName)
	case RefExportName:
		ref.Stmt.addEdit(ref.Start, ref.End, newName+" as "+ref.Name)
	default:
		ref.Stmt.addEdit(ref.Start, ref.End, newName)
	}
	if b := ref.binding; b != nil {
		for i, r := range b.References {
			if r == ref {
				b.References = append(b.References[:i], b.References[i+1:]...)
				break
			}
		}
	}
	ref.Name = newName
	ref.Form = RefPlain
	ref.binding = nil

	m := s.module()
	m.names[newName] = true
	if b := m.bindings[newName]; b != nil {
		ref.binding = b
		b.References = append(b.References, ref)
		return
	}
	m.pending[newName] = append(m.pending[newName], ref)
}

// Register declares the names bound by a synthesized top-level statement.
func (s *Scope) Register(stmt *Stmt) {
	m := s.module()
	kind := BindSynthetic
	if stmt.Kind == KindImport {
		kind = BindImport
	}
	for _, name := range stmt.Declares {
		b := m.declare(name, kind, stmt)
		for _, ref := range m.pending[name] {
			ref.binding = b
			b.References = append(b.References, ref)
		}
		delete(m.pending, name)
	}
}

// toIdentifier strips characters that cannot appear in an identifier.
func toIdentifier(seed string) string {
	var b strings.Builder
	for i, r := range seed {
		switch {
		case r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "ref"
	}
	return b.String()
}
