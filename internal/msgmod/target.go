package msgmod

import "github.com/incognito-design/msgmod/internal/jsast"

// MatchesModule reports whether stmt is an import or a named re-export
// whose source module is target.Module.
func MatchesModule(stmt *jsast.Stmt, target HijackTarget) bool {
	if stmt.Kind != jsast.KindImport && stmt.Kind != jsast.KindExportFrom {
		return false
	}
	return stmt.Source == target.Module
}

// MatchesFunction reports whether a specifier of stmt names target.Function:
// the imported name of a named import, the local name of a re-export.
func MatchesFunction(stmt *jsast.Stmt, target HijackTarget) bool {
	switch stmt.Kind {
	case jsast.KindImport:
		for _, spec := range stmt.Imports {
			if isMatchingImportSpecifier(spec, target) {
				return true
			}
		}
	case jsast.KindExportFrom:
		for _, spec := range stmt.Exports {
			if isMatchingExportSpecifier(spec, target) {
				return true
			}
		}
	}
	return false
}

// Hijacks reports whether stmt references target.
func Hijacks(stmt *jsast.Stmt, target HijackTarget) bool {
	return MatchesModule(stmt, target) && MatchesFunction(stmt, target)
}

// hijackedTargets returns the targets stmt hijacks, in configuration order.
func hijackedTargets(stmt *jsast.Stmt, targets []HijackTarget) []HijackTarget {
	var out []HijackTarget
	for _, t := range targets {
		if Hijacks(stmt, t) {
			out = append(out, t)
		}
	}
	return out
}

func isMatchingImportSpecifier(spec *jsast.ImportSpecifier, target HijackTarget) bool {
	return spec.Kind == jsast.SpecNamed && !spec.TypeOnly && spec.Imported == target.Function
}

func isMatchingExportSpecifier(spec *jsast.ExportSpecifier, target HijackTarget) bool {
	return !spec.TypeOnly && spec.Local == target.Function
}
