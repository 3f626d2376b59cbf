package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, out *bytes.Buffer) []output {
	t.Helper()
	var lines []output
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var o output
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &o))
		lines = append(lines, o)
	}
	return lines
}

func TestRunArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"https://www.example.co.uk/a", "user.github.io"}, nil, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	lines := decodeLines(t, &stdout)
	require.Len(t, lines, 2)
	require.NotNil(t, lines[0].Result)
	assert.Equal(t, "example.co.uk", lines[0].Result.URL.Domain)
	require.NotNil(t, lines[1].Result)
	assert.Equal(t, "user.github.io", lines[1].Result.URL.Domain)
}

func TestRunStdinAndFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader("# comment\nuser.github.io\n\nwiki.corp\nexample\n")
	code := run([]string{"-suffix", "-allow-private=false", "-extended", "corp,lan"}, stdin, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "1 input(s) failed")

	lines := decodeLines(t, &stdout)
	require.Len(t, lines, 3)
	require.NotNil(t, lines[0].Suffix)
	assert.Equal(t, "io", lines[0].Suffix.Name)
	require.NotNil(t, lines[1].Suffix)
	assert.Equal(t, "corp", lines[1].Suffix.Name)
	assert.Equal(t, "example", lines[2].Input)
	assert.NotEmpty(t, lines[2].Error)
}

func TestRunAlternateList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.dat")
	list := "// ===BEGIN ICANN DOMAINS===\ntest\n// ===END ICANN DOMAINS===\n"
	require.NoError(t, os.WriteFile(path, []byte(list), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-list", path, "a.b.test", "example.com"}, nil, &stdout, &stderr)
	assert.Equal(t, 1, code)

	lines := decodeLines(t, &stdout)
	require.Len(t, lines, 2)
	require.NotNil(t, lines[0].Result)
	assert.Equal(t, "b.test", lines[0].Result.URL.Domain)
	assert.NotEmpty(t, lines[1].Error)
}

func TestRunBadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"-nope"}, nil, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"-list", filepath.Join(t.TempDir(), "missing")}, nil, &stdout, &stderr))
}
