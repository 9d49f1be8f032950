package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"sentra/backends/c"
	"sentra/internal/ir"
	"sentra/internal/isl"
	"sentra/internal/optimize"
)

var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func colorize(code, s string) string {
	if !colorEnabled {
		return s
	}
	return fmt.Sprintf("\x1b[%sm%s\x1b[0m", code, s)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	rest := os.Args[2:]

	var err error
	switch cmd {
	case "build":
		err = runBuild(rest)
	case "dump-ir":
		err = runDumpIR(rest)
	case "dump-schedule":
		err = runDumpSchedule(rest)
	case "--help", "-h", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "cinnc: unknown command %q\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorize("31", "error:"), err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `cinnc — tensor expression compiler

Usage:
  cinnc build <example-name> -o <dir>
  cinnc dump-ir <example-name>
  cinnc dump-schedule <example-name>

Examples: `+fmt.Sprint(exampleNames))
}

func runBuild(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("cinnc build: missing <example-name>")
	}
	name := args[0]
	outDir := "."
	for i := 1; i < len(args)-1; i++ {
		if args[i] == "-o" {
			outDir = args[i+1]
		}
	}

	start := time.Now()
	fn, err := buildExample(name)
	if err != nil {
		return err
	}
	fnIR, err := fn.CompileToExpr()
	if err != nil {
		return err
	}
	module, err := c.BuildModule([]*ir.FuncNode{fnIR})
	if err != nil {
		return err
	}

	headerPath := filepath.Join(outDir, name+".h")
	sourcePath := filepath.Join(outDir, name+".c")
	if err := c.CompileAsC(module, headerPath, sourcePath); err != nil {
		return err
	}

	info, statErr := os.Stat(sourcePath)
	size := "?"
	if statErr == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	elapsed := time.Since(start)
	fmt.Printf("%s %s, %s in %s\n", colorize("32", "compiled"), name, size, elapsed.Round(time.Microsecond))
	return nil
}

func runDumpIR(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("cinnc dump-ir: missing <example-name>")
	}
	fn, err := buildExample(args[0])
	if err != nil {
		return err
	}
	fnIR, err := fn.CompileToExpr()
	if err != nil {
		return err
	}
	fmt.Println(optimize.Dump(fnIR.Body))
	return nil
}

func runDumpSchedule(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("cinnc dump-schedule: missing <example-name>")
	}
	fn, err := buildExample(args[0])
	if err != nil {
		return err
	}
	if err := fn.EndDefinition(); err != nil {
		return err
	}
	fmt.Println(colorize("36", "-- schedule tree --"))
	fmt.Println(isl.DumpTree(fn.Tree()))
	return nil
}
