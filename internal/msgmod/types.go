// Package msgmod implements a compile-time message-module injection engine.
//
// Source files import a message accessor from a well-known module:
//
//	import { getMessages } from 'messages-modules'
//
// The engine binds every use of that accessor to the messages found in
// sibling files named <base>.<locale>.<extension>, embedding them once at
// the top of the module:
//
//	const _messages = {"isInjected":true,...};
//	import { getMessages } from 'messages-modules'
//	const _getMessagesFunction = getMessages.bind(_messages);
package msgmod

import (
	"errors"

	"github.com/incognito-design/msgmod/internal/loader"
)

// ---------------------------------------------------------------------------
// Targets & options
// ---------------------------------------------------------------------------

// HijackTarget identifies one importable binding to intercept.
type HijackTarget struct {
	Function string `yaml:"function" json:"function"`
	Module   string `yaml:"module" json:"module"`
}

func (t HijackTarget) String() string {
	return t.Function + "@" + t.Module
}

// DefaultTarget is the accessor exported by the messages-modules runtime.
var DefaultTarget = HijackTarget{Function: "getMessages", Module: "messages-modules"}

// Options configures a Transformer or an Engine.
type Options struct {
	// Root is the project root. Injected source paths are relative to it.
	Root string
	// Targets are the bindings to hijack.
	Targets []HijackTarget
	// MessagesFileExtension identifies message files, e.g. "properties".
	MessagesFileExtension string
	// Loader reads one message file.
	Loader loader.Func
	// SourceExtensions restricts the files an Engine scans; empty means
	// every extension the parser understands.
	SourceExtensions []string
	// Jobs bounds parallel file processing in an Engine; <= 0 means one
	// job per CPU.
	Jobs int
	// Verify re-parses transformed output and rejects syntax errors.
	Verify bool
}

// ErrInvalidOptions is wrapped by option validation failures.
var ErrInvalidOptions = errors.New("msgmod: invalid options")

func (o *Options) validate() error {
	switch {
	case len(o.Targets) == 0:
		return errors.Join(ErrInvalidOptions, errors.New("no hijack targets"))
	case o.MessagesFileExtension == "":
		return errors.Join(ErrInvalidOptions, errors.New("empty messages file extension"))
	case o.Loader == nil:
		return errors.Join(ErrInvalidOptions, errors.New("nil loader"))
	}
	for _, t := range o.Targets {
		if t.Function == "" || t.Module == "" {
			return errors.Join(ErrInvalidOptions, errors.New("incomplete target "+t.String()))
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Engine types
// ---------------------------------------------------------------------------

// Overlay maps original source paths to transformed shadow files. Bundler
// integrations load the shadow contents while resolving imports relative to
// the original path.
type Overlay struct {
	Replace map[string]string `json:"Replace"`
}
