package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLI_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no mode", []string{"/"}, "too few options"},
		{"two modes", []string{"-l", "-i", "/"}, "mutually exclusive"},
		{"odd rename args", []string{"-r", "a"}, "rename's arguments must be even numbers"},
		{"odd push args", []string{"--push", "a", "b", "c"}, "push's arguments must be even numbers"},
		{"bad target", []string{"-t", "x", "-l", "/"}, `invalid target "x"`},
		{"no args", []string{"-M"}, "no arguments for the given option"},
		{"unknown flag", []string{"--bogus"}, "unknown flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, code := runCLI(t, t.TempDir(), nil, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, out, tt.want)
			assert.NotContains(t, out, "succeeded")
		})
	}
}

func TestCLI_ConfigError(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), []string{"GOBOX_BACKEND=nope"}, "-l", "/")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, `unknown backend "nope"`)

	out, code = runCLI(t, t.TempDir(), nil, "--config", "/nonexistent/gobox.yaml", "-l", "/")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "config:")
}

func TestCLI_List(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "-l", "/")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "action list on / succeeded")
}

func TestCLI_PartialFailure(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "-M", "docs", "docs", "music")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "action mkdir on docs succeeded")
	assert.Contains(t, out, "action mkdir on docs failed")
	assert.Contains(t, out, "action mkdir on music succeeded")
	assert.Contains(t, out, "encountered 1 error(s)")
}

func TestCLI_FromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "args.txt"), []byte("a\n\n  b  \n"), 0o644))

	out, code := runCLI(t, dir, nil, "-M", "-f", "args.txt")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "action mkdir on a succeeded")
	assert.Contains(t, out, "action mkdir on b succeeded")
}

func TestCLI_Upload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))

	out, code := runCLI(t, dir, nil, "-u", "notes.txt", "-c", "/inbox")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "name: notes.txt")
	assert.Contains(t, out, "action upload on notes.txt succeeded")
}

func TestCLI_PushDryRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "sub", "a.txt"), []byte("a"), 0o644))

	out, code := runCLI(t, dir, nil, "--push", "-n", "src", "/backup")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "action push on (src, /backup) succeeded")
}

func TestCLI_AccountInfo(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "-I")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "account_info:")
	assert.Contains(t, out, "login: dev@example.com")
}

func TestCLI_WhatID(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "-w", "/", "-t", "d")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "folder /'s id is 0")

	out, code = runCLI(t, t.TempDir(), nil, "-w", "/missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "no id found for /missing(type: unspecified)")
}
