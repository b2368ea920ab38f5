package msgmod

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/incognito-design/msgmod/internal/jsast"
)

// walkSourceFiles walks root and calls fn for each module the engine can
// transform. exts restricts the extensions considered; empty means every
// extension the parser understands. Engine and audit share this traversal.
func walkSourceFiles(root string, exts []string, fn func(path string) error) error {
	allowed := extensionSet(exts)
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirRe.MatchString(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if !d.Type().IsRegular() || declarationFileRe.MatchString(name) {
			return nil
		}
		if !allowed[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		return fn(path)
	})
}

func extensionSet(exts []string) map[string]bool {
	if len(exts) == 0 {
		exts = jsast.Extensions
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if jsast.Supported("x" + ext) {
			set[ext] = true
		}
	}
	return set
}

// ---------------------------------------------------------------------------
// Shared regex patterns
// ---------------------------------------------------------------------------

// skipDirRe matches directory names that should be skipped during scanning:
// hidden dirs (including the cache), node_modules, vendor, testdata.
var skipDirRe = regexp.MustCompile(`^\.|^node_modules$|^vendor$|^testdata$`)

// declarationFileRe matches TypeScript declaration files, which carry no
// code to rewrite.
var declarationFileRe = regexp.MustCompile(`\.d\.[cm]?ts$`)
