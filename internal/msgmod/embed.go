package msgmod

import (
	"bytes"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/incognito-design/msgmod/messages"
)

// messagesImportPath is the import path of the Go runtime helper.
const messagesImportPath = "github.com/incognito-design/msgmod/messages"

// EmbedOptions names the generated Go declaration.
type EmbedOptions struct {
	Package  string // package clause, "i18n" when empty
	Variable string // accessor variable, "getMessages" when empty
}

// EmbedGo returns Go source declaring an accessor bound to the messages of
// the module at path, the Go counterpart of the injected JavaScript
// declaration:
//
//	var getMessages = messages.MustBind(&messages.InjectedMessages{...})
func EmbedGo(opts Options, path string, eo EmbedOptions) ([]byte, error) {
	if path == "" {
		return nil, ErrNoSourcePath
	}
	if eo.Package == "" {
		eo.Package = "i18n"
	}
	if eo.Variable == "" {
		eo.Variable = "getMessages"
	}
	if !token.IsIdentifier(eo.Package) || !token.IsIdentifier(eo.Variable) {
		return nil, fmt.Errorf("%w: invalid Go identifier in %q/%q", ErrInvalidOptions, eo.Package, eo.Variable)
	}

	sourceFilePath := relativeSourcePath(opts.Root, path)
	injected, err := collectInjectedMessages(opts.Root, sourceFilePath, opts.MessagesFileExtension, opts.Loader)
	if err != nil {
		return nil, fileError(path, PhaseLoad, err)
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "// Code generated by msgmod embed from %s; DO NOT EDIT.\n\n", sourceFilePath)
	fmt.Fprintf(&buf, "package %s\n\n", eo.Package)
	fmt.Fprintf(&buf, "var %s = messages.MustBind(%s)\n", eo.Variable, injectedLiteral(injected))
	return addImportAndFormat(buf.String(), messagesImportPath)
}

// injectedLiteral renders injected as a Go composite literal with sorted
// keys.
func injectedLiteral(injected *messages.InjectedMessages) string {
	var b strings.Builder
	b.WriteString("&messages.InjectedMessages{\n")
	b.WriteString("IsInjected: true,\n")
	fmt.Fprintf(&b, "SourceFilePath: %s,\n", strconv.Quote(injected.SourceFilePath))
	b.WriteString("KeyValueObjectCollection: messages.KeyValueObjectCollection{\n")
	for _, locale := range sortedKeys(injected.KeyValueObjectCollection) {
		kv := injected.KeyValueObjectCollection[locale]
		fmt.Fprintf(&b, "%s: {\n", strconv.Quote(locale))
		for _, k := range sortedKeys(kv) {
			fmt.Fprintf(&b, "%s: %s,\n", strconv.Quote(k), strconv.Quote(kv[k]))
		}
		b.WriteString("},\n")
	}
	b.WriteString("},\n}")
	return b.String()
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// addImportAndFormat parses generated source, adds importPath via
// astutil.AddImport and re-renders it with gofmt layout.
func addImportAndFormat(content, importPath string) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", content, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("msgmod: parse generated source: %w", err)
	}
	astutil.AddImport(fset, f, importPath)

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return nil, fmt.Errorf("msgmod: format generated source: %w", err)
	}
	return buf.Bytes(), nil
}
