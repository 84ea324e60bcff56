package tools

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"lumina/agent-api/core"
)

type CodeExecArgs struct {
	Code string `json:"code" validate:"required"`
}

// Interpreted code is untrusted. Only these stdlib packages may be referenced;
// anything that reaches the filesystem, network, or process table is refused
// before the interpreter ever sees the code.
var allowedPackages = map[string]bool{
	"bytes":           true,
	"encoding/base64": true,
	"encoding/json":   true,
	"errors":          true,
	"fmt":             true,
	"math":            true,
	"math/rand":       true,
	"regexp":          true,
	"sort":            true,
	"strconv":         true,
	"strings":         true,
	"time":            true,
	"unicode":         true,
}

var importBlockRegEx = regexp.MustCompile(`(?s)import\s*\((.*?)\)`)
var importLineRegEx = regexp.MustCompile(`import\s+(?:\w+\s+)?"([^"]+)"`)
var quotedPathRegEx = regexp.MustCompile(`"([^"]+)"`)
var blockedSelectorRegEx = regexp.MustCompile(`\b(os|exec|syscall|net|http|ioutil|unsafe|plugin|runtime)\s*\.`)

// CodeExecAdapter runs Go snippets inside an in-process yaegi interpreter
// instead of shelling out to a compiler: no subprocess, no filesystem, and a
// wall-clock timeout enforced by the dispatch context.
type CodeExecAdapter struct{}

func NewCodeExecAdapter() *CodeExecAdapter {
	return &CodeExecAdapter{}
}

func (a *CodeExecAdapter) Name() core.ToolName {
	return core.ToolCodeExec
}

func (a *CodeExecAdapter) Describe() core.ToolDescriptor {
	return core.ToolDescriptor{
		Name:        core.ToolCodeExec,
		Description: "Execute a Go snippet in a sandbox and return stdout, stderr, and exit status. Safe stdlib only; no filesystem, network, or subprocesses.",
		Parameters:  core.MustSchema(&CodeExecArgs{}),
	}
}

func (a *CodeExecAdapter) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	var in CodeExecArgs
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := validateSnippet(in.Code); err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	i := interp.New(interp.Options{Stdout: &stdout, Stderr: &stderr})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load interpreter symbols: %w", err)
	}

	type evalOutcome struct{ err error }
	done := make(chan evalOutcome, 1)
	go func() {
		done <- evalOutcome{err: evalSnippet(i, in.Code)}
	}()

	select {
	case out := <-done:
		exitCode := 0
		if out.err != nil {
			exitCode = 1
			fmt.Fprintln(&stderr, out.err.Error())
		}
		return map[string]any{
			"stdout":   stdout.String(),
			"stderr":   stderr.String(),
			"exitCode": exitCode,
		}, nil
	case <-ctx.Done():
		// The goroutine is abandoned; the interpreter has no kill switch,
		// but the result is discarded and the step reports a timeout.
		return nil, fmt.Errorf("code execution timed out: %w", ctx.Err())
	}
}

// evalSnippet runs either a complete program (package main + func main) or a
// bare statement sequence in REPL mode. REPL snippets get the whitelisted
// packages pre-imported so fmt.Println and friends work without boilerplate.
func evalSnippet(i *interp.Interpreter, code string) error {
	trimmed := strings.TrimSpace(code)
	if strings.HasPrefix(trimmed, "package ") {
		if _, err := i.Eval(trimmed); err != nil {
			return err
		}
		_, err := i.Eval("main.main()")
		return err
	}

	for _, path := range sortedAllowedPackages() {
		if _, err := i.Eval(fmt.Sprintf("import %q", path)); err != nil {
			return fmt.Errorf("prelude import %s: %w", path, err)
		}
	}
	_, err := i.Eval(trimmed)
	return err
}

func sortedAllowedPackages() []string {
	paths := make([]string, 0, len(allowedPackages))
	for path := range allowedPackages {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// validateSnippet refuses code that imports or references packages outside
// the whitelist.
func validateSnippet(code string) error {
	var paths []string
	for _, block := range importBlockRegEx.FindAllStringSubmatch(code, -1) {
		for _, quoted := range quotedPathRegEx.FindAllStringSubmatch(block[1], -1) {
			paths = append(paths, quoted[1])
		}
	}
	for _, line := range importLineRegEx.FindAllStringSubmatch(code, -1) {
		paths = append(paths, line[1])
	}
	for _, path := range paths {
		if !allowedPackages[path] {
			return fmt.Errorf("import %q is not allowed in the sandbox", path)
		}
	}
	if m := blockedSelectorRegEx.FindStringSubmatch(code); m != nil {
		return fmt.Errorf("package %q is not allowed in the sandbox", m[1])
	}
	return nil
}
