package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes one librarian invocation against dbPath and returns stdout.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	base := []string{"--db", dbPath, "--log-format", "json"}
	root.SetArgs(append(args, base...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dbPath string, args ...string) string {
	t.Helper()
	out, err := run(t, dbPath, args...)
	require.NoError(t, err, strings.Join(args, " "))
	return out
}

func TestCirculationAcrossInvocations(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")

	out := mustRun(t, db, "add", "book", "--id", "1", "--title", "C++ Programming", "--author", "Bjarne Stroustrup", "--year", "2020")
	assert.Equal(t, "Added book ID 1: C++ Programming by Bjarne Stroustrup\n", out)
	mustRun(t, db, "add", "journal", "--id", "2", "--title", "Paxos Made Simple", "--author", "Lamport", "--journal", "SIGACT", "--volume", "32")
	out = mustRun(t, db, "add", "member", "--id", "101", "--name", "John Doe", "--email", "john@example.com")
	assert.Equal(t, "Added member 'John Doe' with ID 101\n", out)

	out = mustRun(t, db, "issue", "101", "1")
	assert.True(t, strings.HasPrefix(out, "Action: issue, Resource ID: 1, Member ID: 101, Date: "), out)

	out = mustRun(t, db, "issued", "101")
	assert.Contains(t, out, "[1] C++ Programming by Bjarne Stroustrup (book")

	out = mustRun(t, db, "return", "101", "1", "--days-late", "3")
	assert.Contains(t, out, "Fine: Rs. 15\n")
	assert.Contains(t, out, "Total fine for John Doe: Rs. 15\n")

	out = mustRun(t, db, "report")
	assert.Equal(t, "--- Library Report ---\nTotal Resources: 2\nTotal Members: 1\nTotal Transactions: 2\n", out)

	out = mustRun(t, db, "history", "--recent")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Action: return"))

	out = mustRun(t, db, "list", "resources", "--sort", "title")
	rows := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, rows, 4)
	assert.Contains(t, rows[2], "C++ Programming")
	assert.Contains(t, rows[3], "Paxos Made Simple")

	out = mustRun(t, db, "search", "lamport")
	assert.Contains(t, out, "Paxos Made Simple")

	out = mustRun(t, db, "export")
	assert.Contains(t, out, `"SIGACT"`)

	out = mustRun(t, db, "remove", "resource", "2")
	assert.Equal(t, "Removed 1 resource(s) with ID 2\n", out)
}

func TestStrictFlag(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")
	mustRun(t, db, "add", "book", "--id", "1", "--title", "A")

	_, err := run(t, db, "--strict", "add", "book", "--id", "1", "--title", "B")
	assert.Error(t, err)

	mustRun(t, db, "add", "book", "--id", "1", "--title", "B")
	out := mustRun(t, db, "report")
	assert.Contains(t, out, "Total Resources: 2\n")
}

func TestBadInput(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")

	_, err := run(t, db, "issue", "abc", "1")
	assert.EqualError(t, err, "invalid member ID: abc")

	_, err = run(t, db, "issue", "1", "1")
	assert.Error(t, err, "unknown member")

	_, err = run(t, db, "--return-mode", "sideways", "report")
	assert.Error(t, err)

	_, err = run(t, db, "search")
	assert.Error(t, err)
}

func TestDemo(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "untouched.db")

	out := mustRun(t, db, "demo")
	assert.Equal(t, "--- Library Report ---\nTotal Resources: 1\nTotal Members: 1\nTotal Transactions: 1\n", out)
	assert.NoFileExists(t, db)
}
