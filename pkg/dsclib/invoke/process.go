package invoke

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/logger"
)

const initialBufferCapacity = 1 << 20 // 1 MiB, to minimize reallocations for large list outputs.

// ProcessInput is what gets piped into the child: at most one of Stdin or
// Env is populated, matching the manifest's declared InputKind.
type ProcessInput struct {
	Stdin json.RawMessage
	Env   map[string]string
}

// ProcessResult is the raw outcome of one subprocess invocation, before
// any operation-specific output parsing.
type ProcessResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// traceShapeA is the structured tracing-crate style stderr line.
type traceShapeA struct {
	Timestamp  string `json:"timestamp"`
	Level      string `json:"level"`
	Fields     struct {
		Message string `json:"message"`
	} `json:"fields"`
	Target     string `json:"target,omitempty"`
	LineNumber int    `json:"lineNumber,omitempty"`
}

// Run resolves executable against a which-style lookup rooted at
// manifestDir first then the composed PATH, spawns it with args, pipes
// input per ProcessInput, and supervises the child with two concurrent
// readers joined through an errgroup (a stdout reader, and a stderr reader
// that filters and re-emits trace lines through the logger), then waits for
// exit once both have drained. Non-zero exits are
// mapped through exitCodes into a manifest-described error when available.
func Run(ctx context.Context, typeName, executable, manifestDir string, args []string, input ProcessInput, exitCodes map[string]string) (*ProcessResult, error) {
	resolved, err := resolveExecutable(executable, manifestDir)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, dscerror.CommandOperation("executable not found", executable)
		}
		return nil, dscerror.CommandOperation("resolve", executable)
	}

	cmd := exec.CommandContext(ctx, resolved, args...)
	if len(input.Env) > 0 {
		cmd.Env = append(os.Environ(), envSlice(input.Env)...)
	}

	pid := uuid.NewString()[:8]

	var stdinPipe io.WriteCloser
	if len(input.Stdin) > 0 {
		w, err := cmd.StdinPipe()
		if err != nil {
			return nil, dscerror.CommandOperation("stdin pipe", executable)
		}
		stdinPipe = w
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, dscerror.CommandOperation("stdout pipe", executable)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, dscerror.CommandOperation("stderr pipe", executable)
	}

	if err := cmd.Start(); err != nil {
		return nil, dscerror.CommandOperation("spawn", executable)
	}

	if stdinPipe != nil {
		if _, err := stdinPipe.Write(input.Stdin); err != nil {
			return nil, dscerror.CommandOperation("stdin write", executable)
		}
		if err := stdinPipe.Close(); err != nil {
			return nil, dscerror.CommandOperation("stdin close", executable)
		}
	}

	var stdout, stderr bytes.Buffer
	stdout.Grow(initialBufferCapacity)
	stderr.Grow(initialBufferCapacity)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := stdout.ReadFrom(stdoutPipe)
		return err
	})
	g.Go(func() error {
		return filterStderr(stderrPipe, &stderr, pid)
	})

	// The child's pipes must be fully drained before Wait is called, or
	// Wait can race the readers and truncate output; join the two readers
	// first, then wait for exit.
	readErr := g.Wait()
	waitErr := cmd.Wait()
	if readErr != nil {
		return nil, dscerror.CommandOperation("read output", executable)
	}

	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, dscerror.CommandOperation("terminated", executable)
		}
	}

	if exitCode != 0 {
		if reason, ok := exitCodes[fmt.Sprintf("%d", exitCode)]; ok {
			return nil, dscerror.CommandExitFromManifest(typeName, exitCode, reason)
		}
		return nil, dscerror.Command(typeName, exitCode, stderr.String())
	}

	return &ProcessResult{ExitCode: exitCode, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// resolveExecutable mimics a which-style lookup: the manifest's own
// directory first, then the composed PATH.
func resolveExecutable(executable, manifestDir string) (string, error) {
	if filepath.IsAbs(executable) {
		return executable, nil
	}
	if manifestDir != "" {
		candidate := filepath.Join(manifestDir, executable)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	resolved, err := exec.LookPath(executable)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errdefs.ErrNotFound, err)
	}
	return resolved, nil
}

// filterStderr reads stderr line by line. Lines that parse as trace Shape
// A or Shape B are re-emitted on the logger at the corresponding level
// (Shape A prefixed with "PID <id>:"); everything else is forwarded
// unchanged into out for the caller's stderr_result.
func filterStderr(r io.Reader, out *bytes.Buffer, pid string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), initialBufferCapacity)
	for scanner.Scan() {
		line := scanner.Text()
		if emitTraceLine(line, pid) {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return scanner.Err()
}

// emitTraceLine reports whether line was recognized (and thus consumed)
// as a trace line in either shape.
func emitTraceLine(line, pid string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed[0] != '{' {
		return false
	}

	var shapeA traceShapeA
	if err := json.Unmarshal([]byte(trimmed), &shapeA); err == nil && shapeA.Level != "" && shapeA.Fields.Message != "" {
		emitAtLevel(shapeA.Level, fmt.Sprintf("PID %s: %s", pid, shapeA.Fields.Message))
		return true
	}

	var shapeB map[string]string
	if err := json.Unmarshal([]byte(trimmed), &shapeB); err == nil && len(shapeB) == 1 {
		for level, message := range shapeB {
			if isTraceLevel(level) {
				emitAtLevel(strings.ToUpper(level), message)
				return true
			}
		}
	}
	return false
}

func isTraceLevel(level string) bool {
	switch level {
	case "error", "warn", "info", "debug", "trace":
		return true
	default:
		return false
	}
}

func emitAtLevel(level, message string) {
	switch strings.ToUpper(level) {
	case "ERROR":
		logger.Error(message)
	case "WARN":
		logger.Warn(message)
	case "INFO":
		logger.Info(message)
	case "DEBUG", "TRACE":
		logger.Debug(message)
	default:
		logger.Info(message)
	}
}
