package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeCommand runs the root command with args and returns captured stdout.
// Logs and usage go to a separate buffer.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	missing := filepath.Join(t.TempDir(), "missing")
	root.SetArgs(append([]string{"--config", missing + ".yml", "--env", missing + ".env"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCmd()
	if root.Use != "groupd" {
		t.Errorf("root.Use = %q, want groupd", root.Use)
	}
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "group", "version"} {
		if !names[want] {
			t.Errorf("expected subcommand %q", want)
		}
	}
}

func TestGroupCommandStdin(t *testing.T) {
	out, err := executeCommand(t, "{\"id\":1}\n{\"id\":1}\n{\"id\":2}\n", "group", "--key", "id")
	if err != nil {
		t.Fatalf("group failed: %v\n%s", err, out)
	}
	want := "{\"key\":1,\"items\":[{\"id\":1},{\"id\":1}]}\n{\"key\":2,\"items\":[{\"id\":2}]}\n"
	if out != want {
		t.Errorf("unexpected output:\n got %q\nwant %q", out, want)
	}
}

func TestGroupCommandFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.ndjson")
	if err := os.WriteFile(path, []byte("{\"k\":\"x\"}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := executeCommand(t, "", "group", "-k", "k", path)
	if err != nil {
		t.Fatalf("group failed: %v", err)
	}
	if !strings.Contains(out, `"key":"x"`) {
		t.Errorf("expected group for x, got %q", out)
	}
}

func TestGroupCommandRequiresKey(t *testing.T) {
	if _, err := executeCommand(t, "{}\n", "group"); err == nil {
		t.Fatal("expected error without --key")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "groupd ") {
		t.Errorf("unexpected version output %q", out)
	}
}
