package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyvit/treedb"
	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

const profileBatch = `{
	"users/u1/profile": null,
	"users/u1/profile/name": "Alice",
	"users/u1/profile/photo_url": "url",
	"users/u1/timezone": "UTC"
}`

// run executes treebatch with args, feeding stdin, and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestClean(t *testing.T) {
	stdout, stderr, err := run(t, profileBatch, "clean", "--report")
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	want := "{\n  \"users/u1/profile\": null,\n  \"users/u1/timezone\": \"UTC\"\n}\n"
	if stdout != want {
		t.Errorf("stdout = %q, wanted %q", stdout, want)
	}
	if !strings.Contains(stderr, "dropped users/u1/profile/name = \"Alice\" (deleted by users/u1/profile)") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestClean_file(t *testing.T) {
	file := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(file, []byte(`{"a": 1, "b/c": null}`), 0644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := run(t, "", "clean", file)
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if stdout != "{\n  \"a\": 1,\n  \"b/c\": null\n}\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestClean_invalid(t *testing.T) {
	if _, _, err := run(t, `{"a//b": 1}`, "clean"); err == nil {
		t.Errorf("clean accepted an invalid path")
	}
	if _, _, err := run(t, `[1, 2]`, "clean"); err == nil {
		t.Errorf("clean accepted a JSON array")
	}
	if _, _, err := run(t, "", "clean", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("clean accepted a missing file")
	}
}

func TestConflicts(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{"a/b", "a/b/c", "true\n"},
		{"a/b/c", "a/b", "true\n"},
		{"a/b", "a/c", "false\n"},
		{"a/b", "a/b", "false\n"},
	}
	for _, tt := range tests {
		stdout, _, err := run(t, "", "conflicts", tt.a, tt.b)
		if err != nil {
			t.Fatalf("conflicts %s %s failed: %v", tt.a, tt.b, err)
		}
		if stdout != tt.want {
			t.Errorf("conflicts %s %s = %q, wanted %q", tt.a, tt.b, stdout, tt.want)
		}
	}
	if _, _, err := run(t, "", "conflicts", "a//b", "a"); err == nil {
		t.Errorf("conflicts accepted an invalid path")
	}
}

func TestOverlaps(t *testing.T) {
	stdout, _, err := run(t, profileBatch, "overlaps")
	if err != nil {
		t.Fatalf("overlaps failed: %v", err)
	}
	want := "users/u1/profile > users/u1/profile/name\nusers/u1/profile > users/u1/profile/photo_url\n"
	if stdout != want {
		t.Errorf("stdout = %q, wanted %q", stdout, want)
	}

	_, _, err = run(t, profileBatch, "overlaps", "--fail")
	if !errors.Is(err, treedb.ErrOverlappingPaths) {
		t.Errorf("overlaps --fail err = %v", err)
	}

	stdout, _, err = run(t, `{"a": 1}`, "overlaps", "--fail")
	if err != nil || stdout != "no overlaps\n" {
		t.Errorf("overlaps on a clean batch = %q, %v", stdout, err)
	}
}

func TestApplyGetDump(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tree.db")

	_, _, err := run(t, `{"users/u1/profile/name": "Old", "users/u1/age": 30}`, "apply", "--db", db)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	_, _, err = run(t, profileBatch, "apply", "--db", db, "--raw")
	if !errors.Is(err, treedb.ErrOverlappingPaths) {
		t.Fatalf("apply --raw err = %v, wanted ErrOverlappingPaths", err)
	}

	stdout, stderr, err := run(t, profileBatch, "apply", "--db", db)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if stdout != "applied 2 entries, dropped 2\n" {
		t.Errorf("apply stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "dropped users/u1/profile/photo_url") {
		t.Errorf("apply stderr = %q", stderr)
	}

	stdout, _, err = run(t, "", "get", "--db", db, "users/u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stdout != "{\n  \"age\": 30,\n  \"timezone\": \"UTC\"\n}\n" {
		t.Errorf("get stdout = %q", stdout)
	}

	stdout, _, err = run(t, "", "dump", "--db", db, "--stats")
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	want := "users/u1/age = 30\nusers/u1/timezone = \"UTC\"\n" + strings.Repeat("-", 60) + "\nleaves = 2, interior = 2\n"
	if stdout != want {
		t.Errorf("dump stdout = %q, wanted %q", stdout, want)
	}
}

func TestStoreCommands_requireDB(t *testing.T) {
	if _, _, err := run(t, "", "get", "a"); err == nil {
		t.Errorf("get without --db succeeded")
	}
}

func TestVersion(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")
	stdout, _, err := run(t, "", "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if stdout != "1.2.3\n" {
		t.Errorf("--version = %q", stdout)
	}
}
