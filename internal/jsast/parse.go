package jsast

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrUnsupportedLanguage is returned for files without a known grammar.
var ErrUnsupportedLanguage = errors.New("jsast: unsupported source file extension")

// SyntaxError reports the first syntax error found in a module.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error near %q", e.Path, e.Line, e.Column, e.Near)
}

// Extensions lists the source file extensions Parse understands.
var Extensions = []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx"}

func languageFor(path string) (*sitter.Language, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return javascript.GetLanguage(), nil
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage(), nil
	case ".tsx":
		return tsx.GetLanguage(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
}

// Supported reports whether path has an extension Parse understands.
func Supported(path string) bool {
	_, err := languageFor(path)
	return err == nil
}

// Parse parses src as an ES module. The grammar is chosen from the
// extension of path.
func Parse(ctx context.Context, path string, src []byte) (*Program, error) {
	lang, err := languageFor(path)
	if err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("jsast: parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, src, root)
	}
	return build(path, src, root), nil
}

func syntaxError(path string, src []byte, root *sitter.Node) error {
	bad := findError(root)
	if bad == nil {
		bad = root
	}
	pt := bad.StartPoint()
	near := string(src[bad.StartByte():bad.EndByte()])
	if len(near) > 32 {
		near = near[:32]
	}
	return &SyntaxError{Path: path, Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Near: near}
}

func findError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && (c.HasError() || c.IsMissing()) {
			if found := findError(c); found != nil {
				return found
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Program construction
// ---------------------------------------------------------------------------

type candidate struct {
	scope *Scope
	ref   *Reference
}

type builder struct {
	src   []byte
	stmt  *Stmt
	cands []candidate
}

func build(path string, src []byte, root *sitter.Node) *Program {
	module := newScope(nil, true)
	module.names = make(map[string]bool)
	module.pending = make(map[string][]*Reference)

	prog := &Program{Path: path, src: src, scope: module}
	b := &builder{src: src}

	// The preamble runs through the last hashbang or directive; comments
	// in between belong to it.
	n := int(root.ChildCount())
	i := 0
	for j := 0; j < n; j++ {
		c := root.Child(j)
		if c.Type() == "comment" {
			continue
		}
		if c.Type() != "hash_bang_line" && !b.isDirective(c) {
			break
		}
		prog.preambleEnd = int(c.EndByte())
		i = j + 1
	}

	prevEnd := prog.preambleEnd
	for ; i < n; i++ {
		c := root.Child(i)
		start, end := int(c.StartByte()), int(c.EndByte())
		st := &Stmt{
			Line:    int(c.StartPoint().Row) + 1,
			start:   start,
			end:     end,
			prevEnd: prevEnd,
			leading: string(src[prevEnd:start]),
		}
		b.classify(c, st)
		b.stmt = st
		b.walk(c, module)
		prog.Body = append(prog.Body, st)
		prevEnd = end
	}
	prog.trailer = prevEnd

	for _, c := range b.cands {
		if bd := c.scope.resolve(c.ref.Name); bd != nil {
			c.ref.binding = bd
			bd.References = append(bd.References, c.ref)
		}
	}
	return prog
}

func (b *builder) text(n *sitter.Node) string {
	return string(b.src[n.StartByte():n.EndByte()])
}

func (b *builder) isDirective(n *sitter.Node) bool {
	if n.Type() != "expression_statement" || n.NamedChildCount() == 0 {
		return false
	}
	return n.NamedChild(0).Type() == "string"
}

// commaEnd extends a comma end over following spaces and tabs.
func commaEnd(src []byte, end int) int {
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return end
}

func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

// unquote strips the delimiters of a string literal node.
func (b *builder) unquote(n *sitter.Node) (string, byte) {
	t := b.text(n)
	if n.Type() != "string" || len(t) < 2 {
		return t, 0
	}
	return t[1 : len(t)-1], t[0]
}

func (b *builder) classify(n *sitter.Node, st *Stmt) {
	switch n.Type() {
	case "comment":
		st.Kind = KindComment
	case "import_statement":
		b.classifyImport(n, st)
	case "export_statement":
		b.classifyExport(n, st)
	}
}

func (b *builder) classifyImport(n *sitter.Node, st *Stmt) {
	src := n.ChildByFieldName("source")
	if src == nil {
		return // TS import-equals
	}
	st.Source, st.Quote = b.unquote(src)
	typeOnly := hasToken(n, "type") || hasToken(n, "typeof")

	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			c := clause.NamedChild(j)
			switch c.Type() {
			case "identifier":
				st.Imports = append(st.Imports, &ImportSpecifier{
					Kind: SpecDefault, Imported: "default", Local: b.text(c), TypeOnly: typeOnly,
				})
			case "namespace_import":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					if id := c.NamedChild(k); id.Type() == "identifier" {
						st.Imports = append(st.Imports, &ImportSpecifier{
							Kind: SpecNamespace, Imported: "*", Local: b.text(id), TypeOnly: typeOnly,
						})
					}
				}
			case "named_imports":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					if spec := c.NamedChild(k); spec.Type() == "import_specifier" {
						st.Imports = append(st.Imports, b.importSpecifier(spec, typeOnly))
					}
				}
			}
		}
	}
	if !typeOnly {
		st.Kind = KindImport
	}
}

func (b *builder) importSpecifier(n *sitter.Node, typeOnly bool) *ImportSpecifier {
	name := n.ChildByFieldName("name")
	imported, _ := b.unquote(name)
	spec := &ImportSpecifier{
		Kind:     SpecNamed,
		Imported: imported,
		Local:    imported,
		TypeOnly: typeOnly || hasToken(n, "type") || hasToken(n, "typeof"),
		raw:      b.text(n),
	}
	if alias := n.ChildByFieldName("alias"); alias != nil {
		spec.Local = b.text(alias)
	}
	return spec
}

func (b *builder) classifyExport(n *sitter.Node, st *Stmt) {
	var clause *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "export_clause" {
			clause = c
		}
	}
	if clause == nil || hasToken(n, "type") {
		return
	}
	var last *ExportSpecifier
	for i := 0; i < int(clause.ChildCount()); i++ {
		c := clause.Child(i)
		if c.Type() == "," && last != nil {
			last.commaStart, last.commaEnd = int(c.StartByte()), commaEnd(b.src, int(c.EndByte()))
			last = nil
			continue
		}
		if c.Type() != "export_specifier" {
			continue
		}
		local, _ := b.unquote(c.ChildByFieldName("name"))
		spec := &ExportSpecifier{
			Local:      local,
			Exported:   local,
			TypeOnly:   hasToken(c, "type"),
			raw:        b.text(c),
			start:      int(c.StartByte()),
			end:        int(c.EndByte()),
			commaStart: -1,
			commaEnd:   -1,
		}
		if alias := c.ChildByFieldName("alias"); alias != nil {
			spec.Exported, _ = b.unquote(alias)
		}
		st.Exports = append(st.Exports, spec)
		last = spec
	}
	st.clause = append([]*ExportSpecifier(nil), st.Exports...)

	if src := n.ChildByFieldName("source"); src != nil {
		st.Source, st.Quote = b.unquote(src)
		st.Kind = KindExportFrom
		return
	}
	st.Kind = KindExport
}

// ---------------------------------------------------------------------------
// Scope analysis
// ---------------------------------------------------------------------------

// skipped holds node types that cannot contain value references.
var skipped = map[string]bool{
	"comment":                   true,
	"string":                    true,
	"number":                    true,
	"regex":                     true,
	"type_annotation":           true,
	"type_arguments":            true,
	"type_parameters":           true,
	"type_alias_declaration":    true,
	"interface_declaration":     true,
	"ambient_declaration":       true,
	"abstract_method_signature": true,
	"index_signature":           true,
	"import_alias":              true,
	"asserts_annotation":        true,
	"type_predicate_annotation": true,
	"omitting_type_annotation":  true,
	"opting_type_annotation":    true,
}

func (b *builder) ref(n *sitter.Node, s *Scope, form RefForm) {
	name := b.text(n)
	s.module().names[name] = true
	b.cands = append(b.cands, candidate{scope: s, ref: &Reference{
		Name:  name,
		Form:  form,
		Start: int(n.StartByte()),
		End:   int(n.EndByte()),
		Stmt:  b.stmt,
	}})
}

func (b *builder) walkChildren(n *sitter.Node, s *Scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		b.walk(n.NamedChild(i), s)
	}
}

func (b *builder) walk(n *sitter.Node, s *Scope) {
	if n == nil || skipped[n.Type()] {
		return
	}
	switch n.Type() {
	case "identifier":
		b.ref(n, s, RefPlain)
	case "shorthand_property_identifier":
		b.ref(n, s, RefShorthand)

	case "import_statement":
		for _, spec := range b.stmt.Imports {
			s.module().declare(spec.Local, BindImport, b.stmt)
		}
	case "export_statement":
		b.walkExport(n, s)

	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			s.declare(b.text(name), BindFunction, b.stmt)
		}
		b.walkFunction(n, s, false)
	case "function", "function_expression", "generator_function":
		b.walkFunction(n, s, true)
	case "arrow_function":
		b.walkFunction(n, s, false)
	case "method_definition":
		if name := n.ChildByFieldName("name"); name != nil && name.Type() == "computed_property_name" {
			b.walk(name, s)
		}
		b.walkFunction(n, s, false)
	case "function_signature":
		if name := n.ChildByFieldName("name"); name != nil {
			s.declare(b.text(name), BindFunction, b.stmt)
		}

	case "class_declaration", "abstract_class_declaration":
		name := n.ChildByFieldName("name")
		if name != nil {
			s.declare(b.text(name), BindClass, b.stmt)
		}
		b.walkExcept(n, name, s)
	case "class":
		inner := s
		name := n.ChildByFieldName("name")
		if name != nil {
			inner = newScope(s, false)
			inner.declare(b.text(name), BindClass, b.stmt)
		}
		b.walkExcept(n, name, inner)
	case "enum_declaration":
		name := n.ChildByFieldName("name")
		if name != nil {
			s.declare(b.text(name), BindConst, b.stmt)
		}
		b.walkExcept(n, name, s)
	case "internal_module", "module":
		name := n.ChildByFieldName("name")
		if name != nil && name.Type() == "identifier" {
			s.declare(b.text(name), BindConst, b.stmt)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			b.walkChildren(body, newScope(s, true))
		}

	case "lexical_declaration", "variable_declaration":
		b.walkDeclaration(n, s)

	case "statement_block", "class_static_block", "switch_body":
		b.walkChildren(n, newScope(s, false))
	case "for_statement":
		b.walkChildren(n, newScope(s, false))
	case "for_in_statement":
		b.walkForIn(n, newScope(s, false))
	case "catch_clause":
		inner := newScope(s, false)
		if p := n.ChildByFieldName("parameter"); p != nil {
			b.declarePattern(p, inner, BindCatch)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			b.walkChildren(body, inner)
		}

	case "as_expression", "satisfies_expression":
		b.walk(n.NamedChild(0), s)
	case "type_assertion":
		b.walk(n.NamedChild(int(n.NamedChildCount())-1), s)

	case "jsx_opening_element", "jsx_self_closing_element", "jsx_closing_element":
		name := n.ChildByFieldName("name")
		if name != nil && name.Type() == "identifier" && isIntrinsicTag(b.text(name)) {
			b.walkExcept(n, name, s)
			return
		}
		b.walkChildren(n, s)

	default:
		b.walkChildren(n, s)
	}
}

func (b *builder) walkExcept(n, except *sitter.Node, s *Scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if except != nil && c.StartByte() == except.StartByte() && c.EndByte() == except.EndByte() {
			continue
		}
		b.walk(c, s)
	}
}

func (b *builder) walkExport(n *sitter.Node, s *Scope) {
	if n.ChildByFieldName("source") != nil {
		return // re-exports reference no local binding
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "export_clause" {
			b.walk(c, s)
			continue
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			spec := c.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			if name == nil || name.Type() != "identifier" {
				continue
			}
			form := RefExportName
			if spec.ChildByFieldName("alias") != nil {
				form = RefPlain
			}
			b.ref(name, s, form)
		}
	}
}

func (b *builder) walkFunction(n *sitter.Node, outer *Scope, namedExpr bool) {
	fs := newScope(outer, true)
	if namedExpr {
		if name := n.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
			fs.declare(b.text(name), BindFunction, b.stmt)
		}
	}
	if p := n.ChildByFieldName("parameter"); p != nil {
		b.declarePattern(p, fs, BindParam)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			b.declareParam(params.NamedChild(i), fs)
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		if body.Type() == "statement_block" {
			b.walkChildren(body, fs)
		} else {
			b.walk(body, fs)
		}
	}
}

func (b *builder) declareParam(n *sitter.Node, fs *Scope) {
	switch n.Type() {
	case "comment":
	case "required_parameter", "optional_parameter":
		if pat := n.ChildByFieldName("pattern"); pat != nil {
			b.declarePattern(pat, fs, BindParam)
		}
		if v := n.ChildByFieldName("value"); v != nil {
			b.walk(v, fs)
		}
	default:
		b.declarePattern(n, fs, BindParam)
	}
}

// declKeyword returns the var/let/const keyword of a declaration node.
func declKeyword(n *sitter.Node) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "var", "let", "const":
			return c.Type()
		}
		if c.IsNamed() {
			break
		}
	}
	return ""
}

func bindingKindFor(keyword string) BindingKind {
	switch keyword {
	case "var":
		return BindVar
	case "let":
		return BindLet
	}
	return BindConst
}

func (b *builder) walkDeclaration(n *sitter.Node, s *Scope) {
	keyword := declKeyword(n)
	target := s
	if keyword == "var" || n.Type() == "variable_declaration" {
		keyword = "var"
		target = s.functionScope()
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		if name := d.ChildByFieldName("name"); name != nil {
			b.declarePattern(name, target, bindingKindFor(keyword))
		}
		b.walk(d.ChildByFieldName("value"), s)
	}
}

func (b *builder) walkForIn(n *sitter.Node, s *Scope) {
	left := n.ChildByFieldName("left")
	if keyword := declKeyword(n); keyword != "" && left != nil {
		target := s
		if keyword == "var" {
			target = s.functionScope()
		}
		b.declarePattern(left, target, bindingKindFor(keyword))
	} else {
		b.walk(left, s)
	}
	b.walk(n.ChildByFieldName("right"), s)
	b.walk(n.ChildByFieldName("body"), s)
}

func (b *builder) declarePattern(n *sitter.Node, s *Scope, kind BindingKind) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		s.declare(b.text(n), kind, b.stmt)
	case "object_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "pair_pattern":
				if key := c.ChildByFieldName("key"); key != nil && key.Type() == "computed_property_name" {
					b.walk(key, s)
				}
				b.declarePattern(c.ChildByFieldName("value"), s, kind)
			case "object_assignment_pattern":
				b.declarePattern(c.ChildByFieldName("left"), s, kind)
				b.walk(c.ChildByFieldName("right"), s)
			default:
				b.declarePattern(c, s, kind)
			}
		}
	case "array_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			b.declarePattern(n.NamedChild(i), s, kind)
		}
	case "assignment_pattern":
		b.declarePattern(n.ChildByFieldName("left"), s, kind)
		b.walk(n.ChildByFieldName("right"), s)
	case "rest_pattern":
		if n.NamedChildCount() > 0 {
			b.declarePattern(n.NamedChild(0), s, kind)
		}
	case "required_parameter", "optional_parameter":
		b.declareParam(n, s)
	case "comment":
	default:
		b.walk(n, s)
	}
}

// isIntrinsicTag reports whether a JSX tag name denotes a host element
// (<div>) rather than a component binding.
func isIntrinsicTag(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLower(r)
}
