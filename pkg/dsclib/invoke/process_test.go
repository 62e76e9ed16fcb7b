package invoke

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/logger"
)

func TestRun_CapturesStdout(t *testing.T) {
	res, err := Run(context.Background(), "Test/Echo", "/bin/sh", "", []string{"-c", `echo '{"hello":"world"}'`}, ProcessInput{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(string(res.Stdout)); got != `{"hello":"world"}` {
		t.Errorf("stdout = %q", got)
	}
}

func TestRun_PipesStdin(t *testing.T) {
	res, err := Run(context.Background(), "Test/Cat", "/bin/sh", "", []string{"-c", "cat"}, ProcessInput{Stdin: []byte(`{"a":1}`)}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := string(res.Stdout); got != `{"a":1}` {
		t.Errorf("stdout = %q", got)
	}
}

func TestRun_SetsEnv(t *testing.T) {
	res, err := Run(context.Background(), "Test/Env", "/bin/sh", "", []string{"-c", "echo $DSC_TEST_VAR"},
		ProcessInput{Env: map[string]string{"DSC_TEST_VAR": "propagated"}}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(string(res.Stdout)); got != "propagated" {
		t.Errorf("stdout = %q, want propagated", got)
	}
}

func TestRun_ExitCodeMappedThroughManifest(t *testing.T) {
	_, err := Run(context.Background(), "Test/Fail", "/bin/sh", "", []string{"-c", "exit 5"}, ProcessInput{}, map[string]string{"5": "disk full"})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected manifest-described reason in error, got: %v", err)
	}
}

func TestRun_ExitCodeWithoutManifestEntry(t *testing.T) {
	_, err := Run(context.Background(), "Test/Fail", "/bin/sh", "", []string{"-c", "echo boom 1>&2; exit 7"}, ProcessInput{}, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "exited with code 7") {
		t.Errorf("expected generic exit description, got: %v", err)
	}
}

func TestRun_FiltersShapeATraceLines(t *testing.T) {
	var buf bytes.Buffer
	restore := logger.SetForTest(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer restore()

	script := `echo '{"timestamp":"2026-01-01T00:00:00Z","level":"INFO","fields":{"message":"hello from provider"}}' 1>&2; echo 'real stderr line' 1>&2`
	res, err := Run(context.Background(), "Test/Trace", "/bin/sh", "", []string{"-c", script}, ProcessInput{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(buf.String(), "hello from provider") {
		t.Errorf("expected trace line to be re-emitted through logger, got log buffer: %q", buf.String())
	}
	if strings.Contains(string(res.Stderr), "hello from provider") {
		t.Errorf("trace line should be consumed, not forwarded into stderr result: %q", res.Stderr)
	}
	if !strings.Contains(string(res.Stderr), "real stderr line") {
		t.Errorf("expected non-trace stderr line to be forwarded, got: %q", res.Stderr)
	}
}

func TestRun_FiltersShapeBTraceLines(t *testing.T) {
	var buf bytes.Buffer
	restore := logger.SetForTest(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer restore()

	res, err := Run(context.Background(), "Test/Trace", "/bin/sh", "", []string{"-c", `echo '{"warn": "low disk space"}' 1>&2`}, ProcessInput{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(buf.String(), "low disk space") {
		t.Errorf("expected Shape B trace line to be re-emitted, got: %q", buf.String())
	}
	if strings.Contains(string(res.Stderr), "low disk space") {
		t.Errorf("trace line should be consumed, got: %q", res.Stderr)
	}
}

func TestRun_ResolvesExecutableRelativeToManifestDir(t *testing.T) {
	dir := t.TempDir()
	scriptPath := dir + "/provider.sh"
	if err := writeExecutableScript(scriptPath, "#!/bin/sh\necho '{}'\n"); err != nil {
		t.Fatalf("writeExecutableScript: %v", err)
	}

	res, err := Run(context.Background(), "Test/Local", "provider.sh", dir, nil, ProcessInput{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(string(res.Stdout)) != "{}" {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestRun_MissingExecutableReportsNotFound(t *testing.T) {
	_, err := Run(context.Background(), "Test/Missing", "dsc-test-definitely-not-on-path", "", nil, ProcessInput{}, nil)
	if err == nil {
		t.Fatal("expected an error for a missing executable")
	}
	dscErr, ok := err.(*dscerror.Error)
	if !ok {
		t.Fatalf("expected *dscerror.Error, got %T", err)
	}
	if dscErr.Kind != dscerror.KindCommandOperation {
		t.Fatalf("Kind = %v, want %v", dscErr.Kind, dscerror.KindCommandOperation)
	}
	if !strings.Contains(dscErr.Message, "executable not found") {
		t.Fatalf("Message = %q, want it to name the classified reason", dscErr.Message)
	}
}
