package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/alphabet-lang/alphabet/internal/config"
	"github.com/alphabet-lang/alphabet/internal/ffi"
	"github.com/alphabet-lang/alphabet/internal/lsp"
	"github.com/alphabet-lang/alphabet/internal/repl"
	"github.com/alphabet-lang/alphabet/internal/runtime"
)

const version = "alphabet 0.1.0"

func main() {
	fs := flag.NewFlagSet("alphabet", flag.ContinueOnError)
	fs.SetOutput(discardWriter{})

	runREPL := fs.Bool("repl", false, "Start the interactive REPL")
	runLSP := fs.Bool("lsp", false, "Start the language server over stdin/stdout")
	compile := fs.Bool("c", false, "Compile only, don't run")
	compileLng := fs.Bool("compile", false, "Compile only, don't run")
	outPath := fs.String("o", "", "Output path for -c/--compile")
	showVer := fs.Bool("v", false, "Print version")
	showVerLng := fs.Bool("version", false, "Print version")
	showHelp := fs.Bool("h", false, "Show this help message")
	showHelpLng := fs.Bool("help", false, "Show this help message")

	if err := fs.Parse(os.Args[1:]); err != nil {
		printHelp()
		os.Exit(1)
	}

	if *showHelp || *showHelpLng {
		printHelp()
		os.Exit(0)
	}

	if *showVer || *showVerLng {
		fmt.Println(version)
		os.Exit(0)
	}

	if *runLSP {
		server := lsp.NewServer(os.Stdin, os.Stdout, os.Stderr)
		if err := server.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "lsp: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *runREPL {
		cfg, _ := config.LoadFromDir(".")
		r := repl.New(repl.Config{
			PromptPrimary:  cfg.REPL.PromptPrimary,
			PromptContinue: cfg.REPL.PromptContinue,
		})
		r.Run()
		os.Exit(0)
	}

	if fs.NArg() < 1 {
		printHelp()
		os.Exit(1)
	}

	path := fs.Arg(0)
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "alphabet: %v\n", err)
		os.Exit(1)
	}

	if *compile || *compileLng {
		out := os.Stdout
		if *outPath != "" {
			f, err := os.Create(*outPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "alphabet: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			out = f
		}
		if err := runtime.CompileToBytecode(string(source), out); err != nil {
			fmt.Fprintf(os.Stderr, "alphabet: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, _ := config.LoadFromDir(path)
	bridge := ffi.New(cfg.FFI)
	if err := runtime.RunWithFFI(string(source), os.Stdin, os.Stdout, os.Stderr, cfg.VM.StackSize, bridge); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

// discardWriter silences flag's own "flag provided but not defined"
// message so the CLI's own printHelp is the only usage text a user sees.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func printHelp() {
	fmt.Println(version)
	fmt.Println()
	fmt.Println("Usage: alphabet [options] <file>")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --repl            Start the interactive REPL")
	fmt.Println("  --lsp             Start the language server over stdin/stdout")
	fmt.Println("  -c, --compile     Compile only, don't run")
	fmt.Println("  -o <file>         Output path for -c/--compile")
	fmt.Println("  -v, --version     Print version")
	fmt.Println("  -h, --help        Show this help message")
}
