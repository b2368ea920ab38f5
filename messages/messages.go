// Package messages is the runtime side of message-module injection.
//
// A transformed source file carries one InjectedMessages record holding the
// messages of every locale found next to it. Accessors bound to that record
// return the messages of a single locale:
//
//	get := messages.Bind(injected)
//	kv, err := get("en-US")
package messages

import (
	"errors"
	"strings"
)

// ErrNotInjected is returned when an accessor runs without injected messages.
// It means the build pipeline did not run the message-module transform.
var ErrNotInjected = errors.New("messages: a messages-module transform must be configured")

// KeyValueObject stores the messages of one locale.
type KeyValueObject map[string]string

// KeyValueObjectCollection stores KeyValueObjects keyed by lowercase locale.
type KeyValueObjectCollection map[string]KeyValueObject

// InjectedMessages is the per-source-file record embedded by the transform.
type InjectedMessages struct {
	IsInjected               bool                     `json:"isInjected"`
	SourceFilePath           string                   `json:"sourceFilePath"`
	KeyValueObjectCollection KeyValueObjectCollection `json:"keyValueObjectCollection"`
}

// NewInjectedMessages returns an empty, injected record for sourceFilePath.
func NewInjectedMessages(sourceFilePath string) *InjectedMessages {
	return &InjectedMessages{
		IsInjected:               true,
		SourceFilePath:           sourceFilePath,
		KeyValueObjectCollection: make(KeyValueObjectCollection),
	}
}

// Locales returns the locale keys present in the record.
func (m *InjectedMessages) Locales() []string {
	if m == nil {
		return nil
	}
	locales := make([]string, 0, len(m.KeyValueObjectCollection))
	for locale := range m.KeyValueObjectCollection {
		locales = append(locales, locale)
	}
	return locales
}

// GetMessages returns the messages of locale from injected. The lookup is
// case-insensitive; an unknown locale yields an empty object.
func GetMessages(injected *InjectedMessages, locale string) (KeyValueObject, error) {
	if injected == nil || !injected.IsInjected {
		return nil, ErrNotInjected
	}
	kv, ok := injected.KeyValueObjectCollection[strings.ToLower(locale)]
	if !ok || kv == nil {
		return KeyValueObject{}, nil
	}
	return kv, nil
}

// Bind returns an accessor closed over injected.
func Bind(injected *InjectedMessages) func(locale string) (KeyValueObject, error) {
	return func(locale string) (KeyValueObject, error) {
		return GetMessages(injected, locale)
	}
}

// MustBind is like Bind but panics on lookups without injected messages.
// It suits generated code where a missing record is a build defect.
func MustBind(injected *InjectedMessages) func(locale string) KeyValueObject {
	get := Bind(injected)
	return func(locale string) KeyValueObject {
		kv, err := get(locale)
		if err != nil {
			panic(err)
		}
		return kv
	}
}
