package msgmod

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incognito-design/msgmod/internal/jsast"
	"github.com/incognito-design/msgmod/messages"
)

const pageMessages = `{"isInjected":true,"sourceFilePath":"src/page.js","keyValueObjectCollection":{"en":{"title":"Hello"}}}`

func transformFile(t *testing.T, dir, rel string, l *countingLoader) *Result {
	t.Helper()
	tr, err := NewTransformer(testOptions(dir, l))
	require.NoError(t, err)
	path := filepath.Join(dir, filepath.FromSlash(rel))
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	res, err := tr.Transform(context.Background(), path, src)
	require.NoError(t, err)
	return res
}

func TestTransform_NoMatchIsPure(t *testing.T) {
	sources := map[string]string{
		"src/plain.js":     "import { other } from 'messages-modules';\nother('en');\n",
		"src/default.js":   "import getMessages from 'messages-modules';\ngetMessages('en');\n",
		"src/ns.js":        "import * as mm from 'messages-modules';\nmm.getMessages('en');\n",
		"src/elsewhere.js": "import { getMessages } from 'not-messages-modules';\ngetMessages('en');\n",
		"src/unused.js":    "import { getMessages } from 'messages-modules';\nfoo();\n",
		"src/local.js":     "const getMessages = () => ({});\ngetMessages('en');\n",
	}
	files := map[string]string{"src/plain.en.properties": "title = Hello\n"}
	for name, src := range sources {
		files[name] = src
	}
	dir := setupTestDir(t, files)

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			l := &countingLoader{}
			scans := countReadDir(t)
			res := transformFile(t, dir, name, l)

			assert.Equal(t, src, string(res.Output))
			assert.False(t, res.Changed)
			assert.False(t, res.Injected)
			assert.Zero(t, res.Hijacked)
			assert.Zero(t, l.calls.Load(), "loader must not run")
			assert.Zero(t, scans.Load(), "directory must not be scanned")
		})
	}
}

func TestTransform_NamedImport(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.js": `import { getMessages } from 'messages-modules';
const m = getMessages('en');
export function title() {
  return getMessages('en').title;
}
`,
		"src/page.en.properties": "title = Hello\n",
	})
	l := &countingLoader{}
	scans := countReadDir(t)
	res := transformFile(t, dir, "src/page.js", l)

	assertOutput(t, `const _messages = `+pageMessages+`;
import { getMessages } from 'messages-modules';
const _getMessagesFunction = getMessages.bind(_messages);
const m = _getMessagesFunction('en');
export function title() {
  return _getMessagesFunction('en').title;
}
`, res.Output)
	assert.True(t, res.Injected)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Hijacked)
	assert.EqualValues(t, 1, l.calls.Load())
	assert.EqualValues(t, 1, scans.Load())
}

func TestTransformProgram_RenameCoverage(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.en.properties": "title = Hello\n",
	})
	src := `import { getMessages as gm } from 'messages-modules';
gm('en');
const o = { gm };
export { gm };
function shadow(gm) { return gm; }
`
	prog, err := jsast.Parse(context.Background(), filepath.Join(dir, "src", "page.js"), []byte(src))
	require.NoError(t, err)
	refs := len(prog.Scope().OwnBinding("gm").References)
	require.Equal(t, 3, refs)

	tr, err := NewTransformer(testOptions(dir, &countingLoader{}))
	require.NoError(t, err)
	res, err := tr.TransformProgram(prog)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Hijacked)

	assert.Empty(t, prog.Scope().OwnBinding("gm").References, "original binding keeps no references")
	hijacked := prog.Scope().OwnBinding("_getMessagesFunction")
	require.NotNil(t, hijacked)
	assert.Len(t, hijacked.References, refs)

	assert.Equal(t, jsast.KindImport, prog.Body[1].Kind)
	assert.Equal(t, "const _getMessagesFunction = gm.bind(_messages);", prog.Body[2].Text(nil))

	assertOutput(t, `const _messages = `+pageMessages+`;
import { getMessages as gm } from 'messages-modules';
const _getMessagesFunction = gm.bind(_messages);
_getMessagesFunction('en');
const o = { gm: _getMessagesFunction };
export { _getMessagesFunction as gm };
function shadow(gm) { return gm; }
`, prog.Print())
}

func TestTransform_PartialReexport(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.js": "export { a, getMessages as b, c, getMessages as d } from 'messages-modules';\n",
	})
	l := &countingLoader{}
	scans := countReadDir(t)
	res := transformFile(t, dir, "src/page.js", l)

	assertOutput(t, `const _messages = {"isInjected":true,"sourceFilePath":"src/page.js","keyValueObjectCollection":{}};
export { a, c } from 'messages-modules';
import { getMessages as _getMessagesImport2 } from 'messages-modules';
const _getMessagesExport2 = _getMessagesImport2.bind(_messages);
export { _getMessagesExport2 as b };
import { getMessages as _getMessagesImport } from 'messages-modules';
const _getMessagesExport = _getMessagesImport.bind(_messages);
export { _getMessagesExport as d };
`, res.Output)
	assert.Equal(t, 2, res.Hijacked)
	assert.EqualValues(t, 1, scans.Load(), "one scan per file")
}

func TestTransform_FullReexportRemoval(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.js":            "export { getMessages as a, getMessages as b } from \"messages-modules\";\nfoo();\n",
		"src/page.en.properties": "title = Hello\n",
	})
	res := transformFile(t, dir, "src/page.js", &countingLoader{})

	assertOutput(t, `const _messages = `+pageMessages+`;
import { getMessages as _getMessagesImport2 } from "messages-modules";
const _getMessagesExport2 = _getMessagesImport2.bind(_messages);
export { _getMessagesExport2 as a };
import { getMessages as _getMessagesImport } from "messages-modules";
const _getMessagesExport = _getMessagesImport.bind(_messages);
export { _getMessagesExport as b };
foo();
`, res.Output)
	assert.Equal(t, 2, res.Hijacked)
	assert.NotContains(t, string(res.Output), `export { getMessages`)
}

func TestTransform_GeneratedNamesAvoidCollisions(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.js": `import { getMessages } from 'messages-modules';
const _messages = 1, _getMessagesFunction = 2;
getMessages(_messages + _getMessagesFunction);
`,
	})
	res := transformFile(t, dir, "src/page.js", &countingLoader{})

	out := string(res.Output)
	assert.Contains(t, out, "const _getMessagesFunction2 = getMessages.bind(_messages2);")
	assert.Contains(t, out, "_getMessagesFunction2(_messages + _getMessagesFunction);")
	assert.True(t, strings.HasPrefix(out, `const _messages2 = {"isInjected":true,"sourceFilePath":"src/page.js","keyValueObjectCollection":{}};`))
}

func TestTransform_MultipleTargets(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.js": `import { getMessages, useMessages } from 'messages-modules';
import { getTitle } from './title';
getMessages('en');
useMessages('en');
getTitle();
`,
	})
	scans := countReadDir(t)
	opts := testOptions(dir, &countingLoader{})
	opts.Targets = append(opts.Targets, HijackTarget{Function: "useMessages", Module: "messages-modules"})
	tr, err := NewTransformer(opts)
	require.NoError(t, err)
	path := filepath.Join(dir, "src", "page.js")
	src, _ := os.ReadFile(path)
	res, err := tr.Transform(context.Background(), path, src)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Hijacked)
	assert.EqualValues(t, 1, scans.Load(), "one scan per file")
	out := string(res.Output)
	assert.Equal(t, 1, strings.Count(out, "const _messages = "), "one injected declaration")
	assert.Contains(t, out, "const _getMessagesFunction = getMessages.bind(_messages);\nconst _useMessagesFunction = useMessages.bind(_messages);")
	assert.Contains(t, out, "getTitle();")
}

func TestTransform_KeepsDirectivePrologue(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.js": "'use client';\nimport { getMessages } from 'messages-modules';\ngetMessages('en');\n",
	})
	res := transformFile(t, dir, "src/page.js", &countingLoader{})
	assert.True(t, strings.HasPrefix(string(res.Output), "'use client';\nconst _messages = "))
}

func TestTransform_KeepsHashbang(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"bin/cli.js":            "#!/usr/bin/env node\nimport { getMessages } from 'messages-modules';\nconsole.log(getMessages('en').usage);\n",
		"bin/cli.en.properties": "usage = cli <command>\n",
	})
	res := transformFile(t, dir, "bin/cli.js", &countingLoader{})

	out := string(res.Output)
	assert.True(t, res.Injected)
	assert.True(t, strings.HasPrefix(out, "#!/usr/bin/env node\nconst _messages = "), out)
	assert.Equal(t, 1, strings.Count(out, "#!"))
	assert.Contains(t, out, "console.log(_getMessagesFunction('en').usage);")
}

func TestTransform_KeepsCommentedDirectivePrologue(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.js": "// header\n'use client';\nimport { getMessages } from 'messages-modules';\ngetMessages('en');\n",
	})
	res := transformFile(t, dir, "src/page.js", &countingLoader{})
	assert.True(t, strings.HasPrefix(string(res.Output), "// header\n'use client';\nconst _messages = "), string(res.Output))
}

func TestTransform_MultipleTargetsReexport(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.js": "export { getMessages as g, useMessages as u } from 'messages-modules';\nfoo();\n",
	})
	opts := testOptions(dir, &countingLoader{})
	opts.Targets = append(opts.Targets, HijackTarget{Function: "useMessages", Module: "messages-modules"})
	tr, err := NewTransformer(opts)
	require.NoError(t, err)
	path := filepath.Join(dir, "src", "page.js")
	src, _ := os.ReadFile(path)
	res, err := tr.Transform(context.Background(), path, src)
	require.NoError(t, err)

	assertOutput(t, `const _messages = {"isInjected":true,"sourceFilePath":"src/page.js","keyValueObjectCollection":{}};
import { getMessages as _getMessagesImport } from 'messages-modules';
const _getMessagesExport = _getMessagesImport.bind(_messages);
export { _getMessagesExport as g };
import { useMessages as _useMessagesImport } from 'messages-modules';
const _useMessagesExport = _useMessagesImport.bind(_messages);
export { _useMessagesExport as u };
foo();
`, res.Output)
	assert.Equal(t, 2, res.Hijacked)
}

func TestTransform_PartialReexportKeepsComments(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.js": "export { /* keep */ a, getMessages as b } from 'messages-modules';\n",
	})
	res := transformFile(t, dir, "src/page.js", &countingLoader{})

	out := string(res.Output)
	assert.Contains(t, out, "\nexport { /* keep */ a } from 'messages-modules';\n")
	assert.Contains(t, out, "export { _getMessagesExport as b };")
	assert.Equal(t, 1, res.Hijacked)
}

func TestTransform_TypeScript(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"src/page.tsx": `import { getMessages } from 'messages-modules';
import type { KeyValueObject } from 'messages-modules';
export const Page = (): JSX.Element => <h1>{getMessages('en').title}</h1>;
`,
	})
	res := transformFile(t, dir, "src/page.tsx", &countingLoader{})
	out := string(res.Output)
	assert.Contains(t, out, "const _getMessagesFunction = getMessages.bind(_messages);")
	assert.Contains(t, out, "<h1>{_getMessagesFunction('en').title}</h1>")
	assert.Contains(t, out, "import type { KeyValueObject } from 'messages-modules';")
}

func TestTransform_LocaleCaseInsensitive(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"Greeting.ts":               "import { getMessages } from 'messages-modules';\ngetMessages('en-US');\n",
		"Greeting.en-US.properties": "hello = Hello\n",
		"Greeting.FR-CA.properties": "hello = Bonjour\n",
		"Greeting.properties":       "hello = none\n",
		"Other.en.properties":       "hello = other\n",
	})
	l := &countingLoader{}
	literal, err := AssembleInjectedMessages(dir, "Greeting.ts", "properties", l.load)
	require.NoError(t, err)
	assert.Equal(t, `{"isInjected":true,"sourceFilePath":"Greeting.ts","keyValueObjectCollection":{"en-us":{"hello":"Hello"},"fr-ca":{"hello":"Bonjour"}}}`, literal)
	assert.EqualValues(t, 2, l.calls.Load())

	var injected messages.InjectedMessages
	require.NoError(t, json.Unmarshal([]byte(literal), &injected))
	get := messages.Bind(&injected)
	kv, err := get("EN-us")
	require.NoError(t, err)
	assert.Equal(t, messages.KeyValueObject{"hello": "Hello"}, kv)
	kv, err = get("de-DE")
	require.NoError(t, err)
	assert.Empty(t, kv)

	res := transformFile(t, dir, "Greeting.ts", &countingLoader{})
	assert.Contains(t, string(res.Output), `"en-us":{"hello":"Hello"}`)
}

func TestTransform_NoSourcePath(t *testing.T) {
	tr, err := NewTransformer(testOptions(t.TempDir(), &countingLoader{}))
	require.NoError(t, err)
	_, err = tr.Transform(context.Background(), "", []byte("foo();"))
	assert.ErrorIs(t, err, ErrNoSourcePath)

	prog, err := jsast.Parse(context.Background(), "page.js", []byte("foo();"))
	require.NoError(t, err)
	prog.Path = ""
	_, err = tr.TransformProgram(prog)
	assert.ErrorIs(t, err, ErrNoSourcePath)
}

func TestTransform_LoaderFailure(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"page.js":            "import { getMessages } from 'messages-modules';\ngetMessages('en');\n",
		"page.en.properties": "title = Hello\n",
	})
	boom := errors.New("boom")
	opts := testOptions(dir, &countingLoader{})
	opts.Loader = func(string) (messages.KeyValueObject, error) { return nil, boom }
	tr, err := NewTransformer(opts)
	require.NoError(t, err)

	path := filepath.Join(dir, "page.js")
	src, _ := os.ReadFile(path)
	_, err = tr.Transform(context.Background(), path, src)
	require.ErrorIs(t, err, boom)
	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, PhaseLoad, fe.Phase)
	assert.Equal(t, filepath.Join(dir, "page.en.properties"), fe.Path)
}

func TestTransform_ParseFailure(t *testing.T) {
	tr, err := NewTransformer(testOptions(t.TempDir(), &countingLoader{}))
	require.NoError(t, err)
	_, err = tr.Transform(context.Background(), "/x/bad.js", []byte("import { from;"))
	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, PhaseParse, fe.Phase)
	var se *jsast.SyntaxError
	assert.ErrorAs(t, err, &se)
}

func TestNewTransformer_InvalidOptions(t *testing.T) {
	base := testOptions("/tmp", &countingLoader{})
	for name, mutate := range map[string]func(*Options){
		"no targets":        func(o *Options) { o.Targets = nil },
		"no extension":      func(o *Options) { o.MessagesFileExtension = "" },
		"no loader":         func(o *Options) { o.Loader = nil },
		"incomplete target": func(o *Options) { o.Targets = []HijackTarget{{Function: "f"}} },
	} {
		t.Run(name, func(t *testing.T) {
			opts := base
			mutate(&opts)
			_, err := NewTransformer(opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}
