// Package jitload implements a JIT/NASM assembly loader: given assembly
// source text and an entry symbol, build a shared object via the system
// toolchain and resolve the symbol for the caller to invoke. The internals
// are dictated by whatever assembler and C toolchain happen to be on the
// host PATH; dlopen/dlsym are done via github.com/ebitengine/purego for a
// cgo-free load.
package jitload

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ebitengine/purego"
	"github.com/google/uuid"

	"github.com/trion-lang/trion/trionerr"
)

// Toolchain names the build strategy that produced a Module, for
// diagnostics.
type Toolchain string

const (
	ToolchainClang Toolchain = "clang"
	ToolchainNasm  Toolchain = "nasm+cc"
)

// Module is a loaded shared object with at least one resolved symbol.
type Module struct {
	handle    uintptr
	path      string
	Toolchain Toolchain
}

// Close unloads the module's shared object.
func (m *Module) Close() error {
	if m.handle == 0 {
		return nil
	}
	if err := purego.Dlclose(m.handle); err != nil {
		return trionerr.Wrap(err, "jitload: dlclose %s", m.path)
	}
	m.handle = 0
	return nil
}

// Symbol resolves name within m.
func (m *Module) Symbol(name string) (uintptr, error) {
	sym, err := purego.Dlsym(m.handle, name)
	if err != nil {
		return 0, trionerr.Wrap(trionerr.ErrSymbolNotFound, "jitload: symbol %s: %v", name, err)
	}
	return sym, nil
}

// Loader builds and loads assembly sources under a scratch directory.
type Loader struct {
	workDir string
}

// New creates a Loader that stages builds under a fresh subdirectory of
// os.TempDir.
func New() (*Loader, error) {
	dir, err := os.MkdirTemp("", "trion-jit-*")
	if err != nil {
		return nil, trionerr.Wrap(err, "jitload: mkdir scratch dir")
	}
	return &Loader{workDir: dir}, nil
}

// Close removes the loader's scratch directory.
func (l *Loader) Close() error {
	return os.RemoveAll(l.workDir)
}

// Load writes source to a temporary file, tries building it with clang
// directly, falls back to nasm plus clang or gcc for linking, then dlopens
// the resulting shared object and resolves entrySymbol. On failure it
// returns a diagnostic string assembled from the build log(s).
func (l *Loader) Load(source, entrySymbol string) (*Module, string, error) {
	id := uuid.New().String()
	srcPath := filepath.Join(l.workDir, id+".s")
	soPath := filepath.Join(l.workDir, id+".so")

	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return nil, "", trionerr.Wrap(err, "jitload: write source")
	}

	var diagnostics []buildAttempt

	if attempt := tryClang(srcPath, soPath); attempt.err == nil {
		return l.finish(soPath, entrySymbol, ToolchainClang, diagnostics)
	} else {
		diagnostics = append(diagnostics, attempt)
	}

	objPath := filepath.Join(l.workDir, id+".o")
	nasmAttempt := runBuildStep("nasm", "-f", "elf64", "-o", objPath, srcPath)
	diagnostics = append(diagnostics, nasmAttempt)
	if nasmAttempt.err != nil {
		return nil, summarize(diagnostics), trionerr.Wrap(trionerr.ErrBuildFailed, "jitload: nasm failed")
	}

	if attempt := runBuildStep("clang", "-shared", "-o", soPath, objPath); attempt.err == nil {
		diagnostics = append(diagnostics, attempt)
		return l.finish(soPath, entrySymbol, ToolchainNasm, diagnostics)
	} else {
		diagnostics = append(diagnostics, attempt)
	}

	gccAttempt := runBuildStep("gcc", "-shared", "-o", soPath, objPath)
	diagnostics = append(diagnostics, gccAttempt)
	if gccAttempt.err != nil {
		return nil, summarize(diagnostics), trionerr.Wrap(trionerr.ErrBuildFailed, "jitload: link failed")
	}

	return l.finish(soPath, entrySymbol, ToolchainNasm, diagnostics)
}

func (l *Loader) finish(soPath, entrySymbol string, tc Toolchain, diagnostics []buildAttempt) (*Module, string, error) {
	handle, err := purego.Dlopen(soPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, summarize(diagnostics), trionerr.Wrap(trionerr.ErrBuildFailed, "jitload: dlopen: %v", err)
	}
	m := &Module{handle: handle, path: soPath, Toolchain: tc}
	if _, err := m.Symbol(entrySymbol); err != nil {
		m.Close()
		return nil, summarize(diagnostics), err
	}
	return m, "", nil
}

func tryClang(srcPath, soPath string) buildAttempt {
	return runBuildStep("clang", "-shared", "-o", soPath, srcPath)
}

type buildAttempt struct {
	tool   string
	args   []string
	output string
	err    error
}

func runBuildStep(tool string, args ...string) buildAttempt {
	cmd := exec.Command(tool, args...)
	out, err := cmd.CombinedOutput()
	return buildAttempt{tool: tool, args: args, output: string(out), err: err}
}

func summarize(attempts []buildAttempt) string {
	s := "jitload build failed:\n"
	for _, a := range attempts {
		status := "ok"
		if a.err != nil {
			status = a.err.Error()
		}
		s += fmt.Sprintf("  %s %v: %s\n%s\n", a.tool, a.args, status, filterDiagnostics(a.output))
	}
	return s
}
