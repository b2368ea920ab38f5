package msgmod

import _ "embed"

// RuntimeJS is the JavaScript runtime helper that transformed modules bind
// to their injected messages. It is published under the module name of
// DefaultTarget.
//
//go:embed runtime.js
var RuntimeJS []byte
