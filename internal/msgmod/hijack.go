package msgmod

import (
	"go.uber.org/zap"

	"github.com/incognito-design/msgmod/internal/jsast"
)

// bindExpr returns `fn.bind(messages)`.
func bindExpr(fn string, msgs *Messages) string {
	return fn + ".bind(" + msgs.VariableName() + ")"
}

// hijackNamedImport rebinds every use of the named imports of targets in
// stmt (e.g. `import { getMessages } from 'messages-modules'`):
//
//	const _getMessagesFunction = getMessages.bind(_messages);
//
// is inserted after the import and all references are renamed to it. The
// import itself is left as is. Specifiers without references are skipped.
// Binders follow specifier order.
func hijackNamedImport(prog *jsast.Program, stmt *jsast.Stmt, targets []HijackTarget, msgs *Messages) (int, error) {
	scope := prog.Scope()
	anchor := stmt
	hijacked := 0

	for _, spec := range stmt.Imports {
		target, ok := importTarget(spec, targets)
		if !ok {
			continue
		}
		binding := scope.OwnBinding(spec.Local)
		if binding == nil || len(binding.References) == 0 {
			continue // unused import, nothing to hijack
		}

		hijackedFunction := freshName(scope, target, roleFunction)
		refs := append([]*jsast.Reference(nil), binding.References...)
		for _, ref := range refs {
			scope.Rename(ref, hijackedFunction)
		}

		decl := jsast.NewConstDecl(hijackedFunction, bindExpr(spec.Local, msgs))
		if err := prog.InsertAfter(anchor, decl); err != nil {
			return hijacked, err
		}
		scope.Register(decl)
		anchor = decl
		hijacked++

		Logger().Debug("hijacked named import",
			zap.String("file", msgs.SourceFilePath()),
			zap.Stringer("target", target),
			zap.String("local", spec.Local),
			zap.String("as", hijackedFunction),
			zap.Int("references", len(refs)))
	}
	return hijacked, nil
}

// hijackNamedExport rehomes the re-exports of targets in stmt
// (e.g. `export { getMessages as a } from 'messages-modules'`). Each
// matching specifier is removed and replaced by:
//
//	import { getMessages as _getMessagesImport } from 'messages-modules';
//	const _getMessagesExport = _getMessagesImport.bind(_messages);
//	export { _getMessagesExport as a };
//
// A statement left without specifiers is deleted. Triples follow specifier
// order, whichever target each specifier matches.
func hijackNamedExport(prog *jsast.Program, stmt *jsast.Stmt, targets []HijackTarget, msgs *Messages) (int, error) {
	scope := prog.Scope()
	hijacked := 0

	// Reverse order keeps indices valid while removing; inserting each
	// triple right after stmt restores the original order.
	for i := len(stmt.Exports) - 1; i >= 0; i-- {
		spec := stmt.Exports[i]
		target, ok := exportTarget(spec, targets)
		if !ok {
			continue
		}
		stmt.RemoveExport(i)

		hijackedImport := freshName(scope, target, roleImport)
		hijackedExport := freshName(scope, target, roleExport)

		synthesized := []*jsast.Stmt{
			jsast.NewImportDecl(stmt.Source, stmt.Quote, &jsast.ImportSpecifier{
				Kind:     jsast.SpecNamed,
				Imported: target.Function,
				Local:    hijackedImport,
			}),
			jsast.NewConstDecl(hijackedExport, bindExpr(hijackedImport, msgs)),
			jsast.NewExportDecl(&jsast.ExportSpecifier{Local: hijackedExport, Exported: spec.Exported}),
		}
		if err := prog.InsertAfter(stmt, synthesized...); err != nil {
			return hijacked, err
		}
		for _, s := range synthesized {
			scope.Register(s)
		}
		hijacked++

		Logger().Debug("rehomed named export",
			zap.String("file", msgs.SourceFilePath()),
			zap.Stringer("target", target),
			zap.String("exported", spec.Exported),
			zap.String("as", hijackedExport))
	}

	if hijacked > 0 && len(stmt.Exports) == 0 {
		if err := prog.Remove(stmt); err != nil {
			return hijacked, err
		}
	}
	return hijacked, nil
}

func importTarget(spec *jsast.ImportSpecifier, targets []HijackTarget) (HijackTarget, bool) {
	for _, t := range targets {
		if isMatchingImportSpecifier(spec, t) {
			return t, true
		}
	}
	return HijackTarget{}, false
}

func exportTarget(spec *jsast.ExportSpecifier, targets []HijackTarget) (HijackTarget, bool) {
	for _, t := range targets {
		if isMatchingExportSpecifier(spec, t) {
			return t, true
		}
	}
	return HijackTarget{}, false
}
