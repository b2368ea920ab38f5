package msgmod

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/incognito-design/msgmod/internal/loader"
	"github.com/incognito-design/msgmod/messages"
)

// readDir is swapped by tests to observe directory scans.
var readDir = os.ReadDir

// localeFile is one message file found next to a source file.
type localeFile struct {
	Locale string // as written in the file name
	Path   string
}

// localeFilePattern matches <base>.<locale>.<ext>.
func localeFilePattern(base, ext string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `\.(?P<locale>[\w-]+)\.` +
		regexp.QuoteMeta(strings.TrimPrefix(ext, ".")) + `$`)
}

// discoverLocaleFiles lists the message files of sourceFilePath, a path
// relative to root using forward slashes. The scan is not recursive and
// only regular files match. Entries come back in directory order.
func discoverLocaleFiles(root, sourceFilePath, ext string) ([]localeFile, error) {
	dir := filepath.Join(root, filepath.FromSlash(path.Dir(sourceFilePath)))
	name := path.Base(sourceFilePath)
	base := strings.TrimSuffix(name, path.Ext(name))
	re := localeFilePattern(base, ext)

	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}
	var files []localeFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		m := re.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		files = append(files, localeFile{
			Locale: m[re.SubexpIndex("locale")],
			Path:   filepath.Join(dir, entry.Name()),
		})
	}
	return files, nil
}

// collectInjectedMessages loads every message file of sourceFilePath.
// Locales are lowercased; for duplicates the last file in directory order
// wins. A loader failure aborts without a partial result.
func collectInjectedMessages(root, sourceFilePath, ext string, load loader.Func) (*messages.InjectedMessages, error) {
	files, err := discoverLocaleFiles(root, sourceFilePath, ext)
	if err != nil {
		return nil, err
	}
	injected := messages.NewInjectedMessages(sourceFilePath)
	for _, f := range files {
		kv, err := load(f.Path)
		if err != nil {
			return nil, fileError(f.Path, PhaseLoad, err)
		}
		if kv == nil {
			kv = messages.KeyValueObject{}
		}
		injected.KeyValueObjectCollection[strings.ToLower(f.Locale)] = kv
	}
	return injected, nil
}

// AssembleInjectedMessages returns the InjectedMessages of sourceFilePath
// as a JSON literal that can be embedded in JavaScript source.
func AssembleInjectedMessages(root, sourceFilePath, ext string, load loader.Func) (string, error) {
	injected, err := collectInjectedMessages(root, sourceFilePath, ext, load)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(injected); err != nil {
		return "", fmt.Errorf("msgmod: encode injected messages: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// relativeSourcePath returns path relative to root with forward slashes.
func relativeSourcePath(root, p string) string {
	if root != "" && filepath.IsAbs(p) {
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
	}
	return filepath.ToSlash(p)
}
