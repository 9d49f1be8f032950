package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunBuildWritesHeaderAndSource(t *testing.T) {
	dir := t.TempDir()
	if err := runBuild([]string{"matmul", "-o", dir}); err != nil {
		t.Fatalf("runBuild: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "matmul.h")); err != nil {
		t.Fatalf("expected matmul.h to be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "matmul.c")); err != nil {
		t.Fatalf("expected matmul.c to be written: %v", err)
	}
}

func TestRunBuildMissingExampleName(t *testing.T) {
	if err := runBuild(nil); err == nil {
		t.Fatalf("expected an error when no example name is given")
	}
}

func TestRunDumpIRUnknownExample(t *testing.T) {
	if err := runDumpIR([]string{"nope"}); err == nil {
		t.Fatalf("expected an error for an unknown example")
	}
}

func TestRunDumpScheduleKnownExample(t *testing.T) {
	if err := runDumpSchedule([]string{"vectorize8"}); err != nil {
		t.Fatalf("runDumpSchedule: %v", err)
	}
}

func TestColorizeDisabledPassesThrough(t *testing.T) {
	prev := colorEnabled
	colorEnabled = false
	defer func() { colorEnabled = prev }()
	if got := colorize("31", "plain"); got != "plain" {
		t.Fatalf("colorize with colorEnabled=false = %q, want unmodified string", got)
	}
}
