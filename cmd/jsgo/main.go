package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/sync/errgroup"

	"github.com/example/jsbind/databind"
	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
	"github.com/example/jsbind/hostlib"
	"github.com/example/jsbind/logging"
	"github.com/example/jsbind/parser"
	"github.com/example/jsbind/runtime"
)

const (
	historyFile = ".jsgo_history"
	prompt      = "js> "
	banner      = "jsgo REPL. Ctrl+C cancels input, Ctrl+D exits. Host classes: "
)

// consoleShim creates a console object using the registered _print/_printErr natives.
const consoleShim = `var console = {
	log: function() { var i = 0; var s = ""; while (i < arguments.length) { if (i > 0) s = s + " "; s = s + arguments[i]; i++; } _print(s); },
	warn: function() { var i = 0; var s = ""; while (i < arguments.length) { if (i > 0) s = s + " "; s = s + arguments[i]; i++; } _printErr(s); },
	error: function() { var i = 0; var s = ""; while (i < arguments.length) { if (i > 0) s = s + " "; s = s + arguments[i]; i++; } _printErr(s); },
	info: function() { var i = 0; var s = ""; while (i < arguments.length) { if (i > 0) s = s + " "; s = s + arguments[i]; i++; } _print(s); }
};
`

func main() {
	evalCode := flag.String("e", "", "evaluate inline JavaScript code")
	dumpAST := flag.Bool("ast", false, "dump the AST as JSON")
	interactive := flag.Bool("i", false, "start an interactive session")
	apiName := flag.String("api", "host", "global name of the host API object")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logger := logging.New(&logging.Config{Level: level, Format: *logFormat, Output: os.Stderr, Component: "jsgo"})

	var source string
	switch {
	case *evalCode != "":
		source = *evalCode
	case flag.NArg() > 0:
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}
		source = string(data)
	case *interactive:
	default:
		fmt.Fprintf(os.Stderr, "Usage: jsgo [options] <file.js>\n")
		fmt.Fprintf(os.Stderr, "       jsgo -e \"code\"\n")
		fmt.Fprintf(os.Stderr, "       jsgo -i\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *dumpAST {
		os.Exit(printAST(source))
	}

	reg := host.NewRegistry()
	if err := hostlib.Register(reg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	loop := engine.NewLoop(engine.NewContext(), func(o *engine.LoopOptions) { o.Logger = logger })
	db := databind.New(reg, loop, func(o *databind.Options) { o.Logger = logger })

	ctx, stop := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := loop.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	code := 0
	g.Go(func() error {
		defer stop()
		if err := loop.Do(gctx, func(c *engine.Context) error {
			registerNatives(c)
			return db.InstallAPI(c, *apiName)
		}); err != nil {
			return err
		}
		if source != "" {
			code = run(gctx, loop, source, *interactive)
		}
		if *interactive && code == 0 {
			code = repl(gctx, loop, reg.Names(), source == "")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func printAST(source string) int {
	p := parser.New(source)
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(program); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding AST: %v\n", err)
		return 1
	}
	return 0
}

// run evaluates source with the console shim prepended. With persist set the
// declarations stay visible to a following REPL session.
func run(ctx context.Context, loop *engine.Loop, source string, persist bool) int {
	var result *runtime.Value
	err := loop.Do(ctx, func(c *engine.Context) error {
		var err error
		if persist {
			result, err = c.EvalPersistent(consoleShim + source)
		} else {
			result, err = c.Eval(consoleShim + source)
		}
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if result != nil && result.Type != runtime.TypeUndefined {
		fmt.Println(result.ToString())
	}
	return 0
}

// repl reads lines until EOF. With prime set the console shim is declared
// first.
func repl(ctx context.Context, loop *engine.Loop, classes []string, prime bool) int {
	fmt.Println(banner + strings.Join(classes, ", "))

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	if prime {
		if err := loop.Do(ctx, func(c *engine.Context) error {
			_, err := c.EvalPersistent(consoleShim)
			return err
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println()
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)

		var result *runtime.Value
		err = loop.Do(ctx, func(c *engine.Context) error {
			var err error
			result, err = c.EvalPersistent(line)
			return err
		})
		switch {
		case err != nil:
			fmt.Println(err)
		case result != nil && result.Type != runtime.TypeUndefined:
			fmt.Println(result.ToString())
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

func registerNatives(c *engine.Context) {
	interp := c.Interpreter()
	interp.RegisterNative("_print", func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if len(args) > 0 {
			fmt.Println(args[0].ToString())
		} else {
			fmt.Println()
		}
		return runtime.Undefined, nil
	})
	interp.RegisterNative("_printErr", func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if len(args) > 0 {
			fmt.Fprintln(os.Stderr, args[0].ToString())
		} else {
			fmt.Fprintln(os.Stderr)
		}
		return runtime.Undefined, nil
	})
}
