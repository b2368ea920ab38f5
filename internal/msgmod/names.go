package msgmod

import "github.com/incognito-design/msgmod/internal/jsast"

// Seeds of generated identifiers.
const (
	roleFunction = "Function" // rebound import
	roleImport   = "Import"   // fresh import of a rehomed export
	roleExport   = "Export"   // bound value of a rehomed export
	messagesSeed = "messages"
)

// freshName returns a module-unique identifier such as _getMessagesFunction.
func freshName(scope *jsast.Scope, target HijackTarget, role string) string {
	return scope.GenerateUID(target.Function + role)
}
