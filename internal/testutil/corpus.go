package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// WriteCorpus creates a corpus under a fresh temp dir and returns its root.
// files maps category names to file name -> content.
func WriteCorpus(t *testing.T, files map[string]map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for category, entries := range files {
		dir := filepath.Join(root, category)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create category %s: %v", category, err)
		}
		for name, content := range entries {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
				t.Fatalf("write %s/%s: %v", category, name, err)
			}
		}
	}
	return root
}

// WriteScript writes an executable /bin/sh script and returns its path.
// Tests using it are skipped on Windows.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	RequireUnix(t)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
	return path
}

// RequireUnix skips the test on platforms without /bin/sh and signals.
func RequireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// JSONValidatorScript is a shell program-under-test that follows the 0/1
// stdout contract. Ignoring whitespace, it accepts files that open with '{'
// and close with '}', or open with '[' and close with ']', and rejects
// everything else, so truncated documents such as {"a": are rejected. It
// crashes itself (SIGKILL) on files containing the word "crash".
const JSONValidatorScript = `f="$1"
if grep -q crash "$f"; then kill -9 $$; fi
body=$(tr -d ' \t\r\n' < "$f")
first=$(printf '%s' "$body" | head -c 1)
last=$(printf '%s' "$body" | tail -c 1)
case "$first$last" in
  "{}"|"[]") printf 0; exit 0 ;;
  *) printf 1; exit 1 ;;
esac`
