package msgmod

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CacheDir is the directory, under the project root, holding shadow files
// and the overlay.
const CacheDir = ".msgmod_cache"

// ---------------------------------------------------------------------------
// Public types
// ---------------------------------------------------------------------------

// Engine transforms every module under a project root and produces an
// overlay mapping each rewritten module to its shadow file.
type Engine struct {
	Root    string
	Overlay Overlay

	t  *Transformer
	mu sync.Mutex // guards Overlay
}

// NewEngine creates an engine rooted at opts.Root.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("%w: empty root", ErrInvalidOptions)
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	opts.Root = root
	t, err := NewTransformer(opts)
	if err != nil {
		return nil, err
	}
	return &Engine{
		Root:    root,
		Overlay: Overlay{Replace: make(map[string]string)},
		t:       t,
	}, nil
}

// ---------------------------------------------------------------------------
// Run — top-level entry point
// ---------------------------------------------------------------------------

// Run transforms all source files under Root and writes the overlay and
// shadow files into .msgmod_cache/. The first failing file aborts the run;
// no overlay is written then.
func (e *Engine) Run(ctx context.Context) error {
	paths, err := e.scanFiles()
	if err != nil {
		return err
	}

	jobs := e.t.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, path := range paths {
		g.Go(func() error {
			return e.processFile(ctx, path)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(e.Overlay.Replace) == 0 {
		Logger().Info("nothing to inject", zap.Int("scanned", len(paths)))
		return nil
	}
	if err := e.writeOverlay(); err != nil {
		return err
	}
	Logger().Info("overlay written",
		zap.String("path", filepath.Join(e.Root, CacheDir, "overlay.json")),
		zap.Int("scanned", len(paths)),
		zap.Int("mapped", len(e.Overlay.Replace)))
	return nil
}

// ---------------------------------------------------------------------------
// File scanning & processing
// ---------------------------------------------------------------------------

// scanFiles returns the sorted absolute paths of all candidate modules.
func (e *Engine) scanFiles() ([]string, error) {
	var paths []string
	err := walkSourceFiles(e.Root, e.t.opts.SourceExtensions, func(path string) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// processFile transforms one module and writes a shadow when it changed.
func (e *Engine) processFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fileError(path, PhaseRead, err)
	}
	res, err := e.t.Transform(ctx, path, src)
	if err != nil {
		return err
	}
	if !res.Changed {
		return nil
	}
	return e.writeShadow(path, res.Output)
}

// ---------------------------------------------------------------------------
// Shadow & overlay I/O
// ---------------------------------------------------------------------------

func (e *Engine) writeShadow(origPath string, content []byte) error {
	cacheDir := filepath.Join(e.Root, CacheDir)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fileError(origPath, PhaseWrite, err)
	}

	hash := sha256.Sum256(content)
	ext := filepath.Ext(origPath)
	shadowName := fmt.Sprintf("%s_%x%s",
		strings.TrimSuffix(filepath.Base(origPath), ext),
		hash[:8], ext)
	shadowPath := filepath.Join(cacheDir, shadowName)

	if err := os.WriteFile(shadowPath, content, 0o644); err != nil {
		return fileError(origPath, PhaseWrite, err)
	}
	e.mu.Lock()
	e.Overlay.Replace[origPath] = shadowPath
	e.mu.Unlock()
	return nil
}

func (e *Engine) writeOverlay() error {
	cacheDir := filepath.Join(e.Root, CacheDir)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(e.Overlay, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cacheDir, "overlay.json"), data, 0o644)
}

// ReadOverlay loads the overlay previously written under root.
func ReadOverlay(root string) (*Overlay, error) {
	data, err := os.ReadFile(filepath.Join(root, CacheDir, "overlay.json"))
	if err != nil {
		return nil, err
	}
	var o Overlay
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Clean removes the cache directory under root.
func Clean(root string) error {
	return os.RemoveAll(filepath.Join(root, CacheDir))
}
