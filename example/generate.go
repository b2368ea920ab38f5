// Package example shows a project using message modules. The JavaScript
// sources under src/ are rewritten by `msgmod gen`; the same messages are
// embedded for Go with `msgmod embed`.
package example

//go:generate go run ../cmd/msgmod embed -pkg example -var greetingMessages -o greeting_messages.go src/components/Greeting.jsx
