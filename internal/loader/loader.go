// Package loader reads message files into key/value objects.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"

	"github.com/incognito-design/msgmod/messages"
)

// ErrUnknownFormat is returned for message file extensions without a loader.
var ErrUnknownFormat = errors.New("loader: unknown message file format")

// Func maps a message file path to its messages.
type Func func(path string) (messages.KeyValueObject, error)

var registry = map[string]Func{
	"properties": Properties,
	"json":       JSON,
	"yaml":       YAML,
	"yml":        YAML,
}

// ForExtension returns the loader registered for a message file extension
// such as "properties" (a leading dot is ignored).
func ForExtension(ext string) (Func, error) {
	fn, ok := registry[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownFormat, ext, strings.Join(Formats(), ", "))
	}
	return fn, nil
}

// Formats lists the registered extensions.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for ext := range registry {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Properties loads a Java-style .properties file. Property expansion is
// disabled: values are taken verbatim.
func Properties(path string) (messages.KeyValueObject, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	return messages.KeyValueObject(p.Map()), nil
}

// JSON loads a JSON object. Nested objects are flattened with dotted keys.
func JSON(path string) (messages.KeyValueObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	kv := make(messages.KeyValueObject)
	flatten(kv, "", raw)
	return kv, nil
}

// YAML loads a YAML mapping. Nested mappings are flattened with dotted keys.
func YAML(path string) (messages.KeyValueObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	kv := make(messages.KeyValueObject)
	flatten(kv, "", raw)
	return kv, nil
}

func flatten(kv messages.KeyValueObject, prefix string, raw map[string]any) {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(kv, key, val)
		case string:
			kv[key] = val
		case nil:
			kv[key] = ""
		default:
			kv[key] = fmt.Sprint(val)
		}
	}
}
