package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/incognito-design/msgmod/internal/config"
	"github.com/incognito-design/msgmod/internal/msgmod"
)

const usage = `msgmod — compile-time message-module injection.

Usage:
  msgmod [-v] gen [dir]           Transform source files and generate overlay
  msgmod [-v] transform [-root dir] <file>
                                  Print one transformed file
  msgmod [-v] audit [dir]         Injection report
  msgmod embed [flags] <file>     Emit Go source binding a file's messages
  msgmod runtime                  Print the JavaScript runtime helper
  msgmod clean [dir]              Remove .msgmod_cache

If [dir] is omitted, the current directory is used. Settings come from
.msgmod.yaml, .env and MSGMOD_* variables of the project directory. For
transform and embed it defaults to the nearest directory above <file>
holding a .msgmod.yaml, else the current directory.
`

func main() {
	defer guardPanic()

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "-v" {
		installLogger()
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch args[0] {
	case "gen":
		err = runGen(ctx, getDir(args, 1))
	case "transform":
		err = runTransform(ctx, args[1:])
	case "audit":
		err = runAudit(ctx, getDir(args, 1))
	case "embed":
		err = runEmbed(args[1:])
	case "runtime":
		_, err = os.Stdout.Write(msgmod.RuntimeJS)
	case "clean":
		if err = msgmod.Clean(getDir(args, 1)); err == nil {
			fmt.Println("msgmod: cache cleaned")
		}
	default:
		fmt.Fprintf(os.Stderr, "msgmod: unknown command %q\n", args[0])
		fmt.Print(usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "msgmod: %v\n", err)
		os.Exit(1)
	}
}

// guardPanic recovers from panics and exits cleanly with the panic message.
func guardPanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "msgmod: %v\n", r)
		os.Exit(1)
	}
}

func installLogger() {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	msgmod.SetLogger(l)
}

func getDir(args []string, idx int) string {
	if len(args) > idx {
		return args[idx]
	}
	return "."
}

func loadOptions(dir string) (msgmod.Options, error) {
	c, err := config.Load(dir)
	if err != nil {
		return msgmod.Options{}, err
	}
	return c.Options()
}

func runGen(ctx context.Context, dir string) error {
	opts, err := loadOptions(dir)
	if err != nil {
		return err
	}
	e, err := msgmod.NewEngine(opts)
	if err != nil {
		return err
	}
	if err := e.Run(ctx); err != nil {
		return err
	}
	if len(e.Overlay.Replace) > 0 {
		fmt.Fprintf(os.Stderr, "msgmod: overlay written to %s (%d file(s) mapped)\n",
			filepath.Join(e.Root, msgmod.CacheDir, "overlay.json"),
			len(e.Overlay.Replace))
	}
	return nil
}

// projectRoot returns root if set, else the nearest directory above file
// holding a .msgmod.yaml, else the current directory.
func projectRoot(root, file string) string {
	if root != "" {
		return root
	}
	if dir, ok := config.FindRoot(filepath.Dir(file)); ok {
		return dir
	}
	return "."
}

func runTransform(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	root := fs.String("root", "", "project root (default: nearest directory with "+config.FileName+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("transform: expected exactly one file")
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return err
	}
	opts, err := loadOptions(projectRoot(*root, path))
	if err != nil {
		return err
	}
	t, err := msgmod.NewTransformer(opts)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res, err := t.Transform(ctx, path, src)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(res.Output)
	return err
}

func runAudit(ctx context.Context, dir string) error {
	opts, err := loadOptions(dir)
	if err != nil {
		return err
	}
	r, err := msgmod.Audit(ctx, opts)
	if err != nil {
		return err
	}
	r.PrintReport(os.Stdout)
	return nil
}

func runEmbed(args []string) error {
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	pkg := fs.String("pkg", "i18n", "package clause of the generated file")
	name := fs.String("var", "getMessages", "name of the generated accessor")
	out := fs.String("o", "", "output file (default stdout)")
	root := fs.String("root", "", "project root (default: nearest directory with "+config.FileName+")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("embed: expected exactly one source file")
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return err
	}
	opts, err := loadOptions(projectRoot(*root, path))
	if err != nil {
		return err
	}
	src, err := msgmod.EmbedGo(opts, path, msgmod.EmbedOptions{Package: *pkg, Variable: *name})
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = os.Stdout.Write(src)
		return err
	}
	return os.WriteFile(*out, src, 0o644)
}
