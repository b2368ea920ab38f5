package msgmod

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/incognito-design/msgmod/internal/jsast"
)

// ---------------------------------------------------------------------------
// Audit types
// ---------------------------------------------------------------------------

// HijackSite is one import or re-export the engine would rewrite.
type HijackSite struct {
	Line       int
	Kind       jsast.StmtKind // KindImport or KindExportFrom
	Target     HijackTarget
	Name       string // local name of an import, exported name of a re-export
	References int    // reference sites of an import
}

// Unused reports whether the site is an import nobody references; such
// imports are left alone.
func (s HijackSite) Unused() bool {
	return s.Kind == jsast.KindImport && s.References == 0
}

// LocaleAudit holds per-locale data of one source file.
type LocaleAudit struct {
	Locale      string // lowercased
	Path        string
	Keys        int
	Valid       bool     // parses as a BCP 47 tag
	MissingKeys []string // keys other locales of the file define
}

// FileAudit holds per-file audit data.
type FileAudit struct {
	Path    string // absolute path
	RelPath string // relative to root, forward slashes
	Sites   []HijackSite
	Locales []LocaleAudit
}

// AuditResult is the aggregate report.
type AuditResult struct {
	Files          []FileAudit // files with at least one hijack site
	TotalFiles     int         // files scanned
	TotalSites     int
	UnusedImports  int
	FilesNoLocale  int // files with sites but no message file
	InvalidLocales int
	MissingKeys    int
}

// ---------------------------------------------------------------------------
// Audit entry point
// ---------------------------------------------------------------------------

// Audit scans all modules under opts.Root and reports where messages would
// be injected, which message files back them, and how consistent those
// files are.
func Audit(ctx context.Context, opts Options) (*AuditResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	opts.Root = root

	r := &AuditResult{}
	err = walkSourceFiles(root, opts.SourceExtensions, func(path string) error {
		r.TotalFiles++
		fa, err := auditFile(ctx, opts, path)
		if err != nil {
			return err
		}
		if fa != nil {
			r.Files = append(r.Files, *fa)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].RelPath < r.Files[j].RelPath })
	for _, f := range r.Files {
		r.TotalSites += len(f.Sites)
		for _, s := range f.Sites {
			if s.Unused() {
				r.UnusedImports++
			}
		}
		if len(f.Locales) == 0 {
			r.FilesNoLocale++
		}
		for _, l := range f.Locales {
			if !l.Valid {
				r.InvalidLocales++
			}
			r.MissingKeys += len(l.MissingKeys)
		}
	}
	return r, nil
}

// ---------------------------------------------------------------------------
// Per-file analysis
// ---------------------------------------------------------------------------

func auditFile(ctx context.Context, opts Options, path string) (*FileAudit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError(path, PhaseRead, err)
	}
	prog, err := jsast.Parse(ctx, path, src)
	if err != nil {
		return nil, fileError(path, PhaseParse, err)
	}
	sites := hijackSites(prog, opts.Targets)
	if len(sites) == 0 {
		return nil, nil
	}

	fa := &FileAudit{
		Path:    path,
		RelPath: relativeSourcePath(opts.Root, path),
		Sites:   sites,
	}
	files, err := discoverLocaleFiles(opts.Root, fa.RelPath, opts.MessagesFileExtension)
	if err != nil {
		return nil, fileError(path, PhaseLoad, err)
	}
	keys := make(map[string]map[string]bool)
	byLocale := make(map[string]LocaleAudit)
	for _, f := range files {
		kv, err := opts.Loader(f.Path)
		if err != nil {
			return nil, fileError(f.Path, PhaseLoad, err)
		}
		locale := strings.ToLower(f.Locale)
		_, perr := language.Parse(locale)
		byLocale[locale] = LocaleAudit{Locale: locale, Path: f.Path, Keys: len(kv), Valid: perr == nil}
		keys[locale] = make(map[string]bool, len(kv))
		for k := range kv {
			keys[locale][k] = true
		}
	}

	union := make(map[string]bool)
	for _, ks := range keys {
		for k := range ks {
			union[k] = true
		}
	}
	for locale, la := range byLocale {
		for k := range union {
			if !keys[locale][k] {
				la.MissingKeys = append(la.MissingKeys, k)
			}
		}
		sort.Strings(la.MissingKeys)
		fa.Locales = append(fa.Locales, la)
	}
	sort.Slice(fa.Locales, func(i, j int) bool { return fa.Locales[i].Locale < fa.Locales[j].Locale })
	return fa, nil
}

// hijackSites lists the specifiers of prog matching targets, without
// rewriting anything.
func hijackSites(prog *jsast.Program, targets []HijackTarget) []HijackSite {
	var sites []HijackSite
	for _, stmt := range prog.Body {
		for _, target := range targets {
			if !Hijacks(stmt, target) {
				continue
			}
			switch stmt.Kind {
			case jsast.KindImport:
				for _, spec := range stmt.Imports {
					if !isMatchingImportSpecifier(spec, target) {
						continue
					}
					refs := 0
					if b := prog.Scope().OwnBinding(spec.Local); b != nil {
						refs = len(b.References)
					}
					sites = append(sites, HijackSite{
						Line: stmt.Line, Kind: stmt.Kind, Target: target,
						Name: spec.Local, References: refs,
					})
				}
			case jsast.KindExportFrom:
				for _, spec := range stmt.Exports {
					if isMatchingExportSpecifier(spec, target) {
						sites = append(sites, HijackSite{
							Line: stmt.Line, Kind: stmt.Kind, Target: target,
							Name: spec.Exported,
						})
					}
				}
			}
		}
	}
	return sites
}

// ---------------------------------------------------------------------------
// Report rendering
// ---------------------------------------------------------------------------

// PrintReport writes a human-readable audit report to w.
func (r *AuditResult) PrintReport(w io.Writer) {
	fmt.Fprintf(w, "msgmod audit — message injection report\n")
	fmt.Fprintf(w, "=======================================\n\n")

	fmt.Fprintf(w, "  Files scanned:    %d\n", r.TotalFiles)
	fmt.Fprintf(w, "  Files injected:   %d\n", len(r.Files))
	fmt.Fprintf(w, "  Hijack sites:     %d\n", r.TotalSites)
	fmt.Fprintf(w, "  Unused imports:   %d\n\n", r.UnusedImports)

	if len(r.Files) == 0 {
		fmt.Fprintf(w, "  (no hijack sites found)\n")
		return
	}

	// --- Per-file breakdown ---
	fmt.Fprintf(w, "Per-file breakdown:\n")
	maxPath := 4 // "File"
	for _, f := range r.Files {
		if len(f.RelPath) > maxPath {
			maxPath = len(f.RelPath)
		}
	}
	if maxPath > 50 {
		maxPath = 50
	}

	fmt.Fprintf(w, "  %-*s  sites  locales\n", maxPath, "File")
	fmt.Fprintf(w, "  %s  %s\n", strings.Repeat("─", maxPath), "─────  ───────")
	for _, f := range r.Files {
		display := f.RelPath
		if len(display) > maxPath {
			display = "…" + display[len(display)-maxPath+1:]
		}
		locales := make([]string, len(f.Locales))
		for i, l := range f.Locales {
			locales[i] = l.Locale
		}
		list := strings.Join(locales, ",")
		if list == "" {
			list = "—"
		}
		fmt.Fprintf(w, "  %-*s  %5d  %s\n", maxPath, display, len(f.Sites), list)
	}

	// --- Problems ---
	var problems []string
	for _, f := range r.Files {
		for _, s := range f.Sites {
			if s.Unused() {
				problems = append(problems, fmt.Sprintf("  %s:%d  unused import %s", f.RelPath, s.Line, s.Name))
			}
		}
		if len(f.Locales) == 0 {
			problems = append(problems, fmt.Sprintf("  %s  no message files", f.RelPath))
		}
		for _, l := range f.Locales {
			if !l.Valid {
				problems = append(problems, fmt.Sprintf("  %s  invalid locale %q", f.RelPath, l.Locale))
			}
			if len(l.MissingKeys) > 0 {
				problems = append(problems, fmt.Sprintf("  %s  %s missing %s",
					f.RelPath, l.Locale, strings.Join(l.MissingKeys, ", ")))
			}
		}
	}
	if len(problems) > 0 {
		fmt.Fprintf(w, "\nProblems (%d):\n", len(problems))
		for _, s := range problems {
			fmt.Fprintln(w, s)
		}
	}
}
