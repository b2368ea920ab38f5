package jsast

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, path, src string) *Program {
	t.Helper()
	prog, err := Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	return prog
}

func assertPrinted(t *testing.T, prog *Program, want string) {
	t.Helper()
	if diff := cmp.Diff(want, string(prog.Print())); diff != "" {
		t.Errorf("printed program mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	src := `#!/usr/bin/env node
'use strict'
// leading comment
import { a } from 'm'

export function f(x) {
  return a(x) // trailing
}
`
	prog := mustParse(t, "main.js", src)
	assert.False(t, prog.Modified())
	assert.Equal(t, src, string(prog.Print()))
}

func TestParse_ImportSpecifiers(t *testing.T) {
	prog := mustParse(t, "main.js", `import def, { a as b, c } from "mod";
import * as ns from 'other';
`)
	require.Len(t, prog.Body, 2)

	imp := prog.Body[0]
	assert.Equal(t, KindImport, imp.Kind)
	assert.Equal(t, "mod", imp.Source)
	assert.Equal(t, byte('"'), imp.Quote)
	require.Len(t, imp.Imports, 3)
	assert.Equal(t, SpecDefault, imp.Imports[0].Kind)
	assert.Equal(t, "def", imp.Imports[0].Local)
	assert.Equal(t, "a", imp.Imports[1].Imported)
	assert.Equal(t, "b", imp.Imports[1].Local)
	assert.Equal(t, "c", imp.Imports[2].Local)

	ns := prog.Body[1]
	require.Len(t, ns.Imports, 1)
	assert.Equal(t, SpecNamespace, ns.Imports[0].Kind)
	assert.Equal(t, "ns", ns.Imports[0].Local)
}

func TestParse_ExportStatements(t *testing.T) {
	prog := mustParse(t, "main.js", `export { a, b as c } from 'mod'
export * from 'all'
const d = 1
export { d }
`)
	require.Len(t, prog.Body, 4)

	from := prog.Body[0]
	assert.Equal(t, KindExportFrom, from.Kind)
	assert.Equal(t, "mod", from.Source)
	require.Len(t, from.Exports, 2)
	assert.Equal(t, "b", from.Exports[1].Local)
	assert.Equal(t, "c", from.Exports[1].Exported)

	assert.Equal(t, KindOther, prog.Body[1].Kind)
	assert.Equal(t, KindExport, prog.Body[3].Kind)
}

func TestParse_TypeOnlyImports(t *testing.T) {
	prog := mustParse(t, "main.ts", `import type { A } from 'types'
import { b } from 'values'
`)
	assert.Equal(t, KindOther, prog.Body[0].Kind)
	assert.Equal(t, "types", prog.Body[0].Source)
	assert.Equal(t, KindImport, prog.Body[1].Kind)
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse(context.Background(), "bad.js", []byte("import { from 'x'\nconst = ;\n"))
	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr), "got %v", err)
	assert.Equal(t, "bad.js", syntaxErr.Path)
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := Parse(context.Background(), "style.css", []byte("a{}"))
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.True(t, Supported("App.tsx"))
	assert.False(t, Supported("README.md"))
}

func TestProgram_InsertAfter(t *testing.T) {
	prog := mustParse(t, "main.js", "import { a } from 'm';\nfoo(a);\n")
	require.NoError(t, prog.InsertAfter(prog.Body[0], NewConstDecl("_b", "a.bind(x)")))
	assertPrinted(t, prog, "import { a } from 'm';\nconst _b = a.bind(x);\nfoo(a);\n")
}

func TestProgram_Prepend(t *testing.T) {
	prog := mustParse(t, "main.js", "import { a } from 'm';\nfoo(a);\n")
	prog.Prepend(NewConstDecl("_messages", "{}"))
	assertPrinted(t, prog, "const _messages = {};\nimport { a } from 'm';\nfoo(a);\n")
}

func TestProgram_PrependAfterHashbang(t *testing.T) {
	prog := mustParse(t, "main.js", "#!/usr/bin/env node\nfoo();\n")
	prog.Prepend(NewConstDecl("_messages", "{}"))
	assertPrinted(t, prog, "#!/usr/bin/env node\nconst _messages = {};\nfoo();\n")
}

func TestProgram_RemoveAndRenderExports(t *testing.T) {
	prog := mustParse(t, "main.js", "export { a, b as c, d } from 'm';\nfoo();\n")
	stmt := prog.Body[0]
	stmt.RemoveExport(1)
	assertPrinted(t, prog, "export { a, d } from 'm';\nfoo();\n")

	require.NoError(t, prog.Remove(stmt))
	assertPrinted(t, prog, "\nfoo();\n")
	assert.ErrorIs(t, prog.Remove(stmt), ErrStmtNotFound)
}

func TestProgram_PrependAfterCommentedDirectives(t *testing.T) {
	prog := mustParse(t, "page.js", "// header\n'use client';\n/* note */\nimport { a } from 'm';\n")
	prog.Prepend(NewConstDecl("_messages", "{}"))
	assertPrinted(t, prog, "// header\n'use client';\nconst _messages = {};\n/* note */\nimport { a } from 'm';\n")
}

func TestProgram_RemoveExportKeepsComments(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		remove []int
		want   string
	}{
		{"last", "export { /* keep */ a, getMessages as b } from 'm';", []int{1}, "export { /* keep */ a } from 'm';"},
		{"first", "export { getMessages as b, /* keep */ a } from 'm';", []int{0}, "export { /* keep */ a } from 'm';"},
		{"middle", "export { a, b, c } from \"m\";", []int{1}, "export { a, c } from \"m\";"},
		{"trailing comma", "export { a, b, } from 'm';", []int{1}, "export { a, } from 'm';"},
		{"adjacent", "export { a, b, c, d } from 'm';", []int{2, 1}, "export { a, d } from 'm';"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustParse(t, "main.js", tt.src+"\n")
			stmt := prog.Body[0]
			for _, i := range tt.remove {
				stmt.RemoveExport(i)
			}
			assertPrinted(t, prog, tt.want+"\n")
		})
	}
}

func TestProgram_SyntheticStatements(t *testing.T) {
	imp := NewImportDecl("messages-modules", '\'', &ImportSpecifier{Kind: SpecNamed, Imported: "getMessages", Local: "_getMessages"})
	assert.Equal(t, "import { getMessages as _getMessages } from 'messages-modules';", imp.Text(nil))
	assert.Equal(t, []string{"_getMessages"}, imp.Declares)

	exp := NewExportDecl(&ExportSpecifier{Local: "_getMessagesExport", Exported: "getMessages"})
	assert.Equal(t, "export { _getMessagesExport as getMessages };", exp.Text(nil))
	assert.True(t, exp.Synthetic())
}
