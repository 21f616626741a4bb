package main

import (
	"bytes"
	"testing"

	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutePassesArgumentsThrough(t *testing.T) {
	var got app.Invocation
	var stderr bytes.Buffer

	code := execute([]string{"/bin/bash", "/tmp", "120", "40", "-l", "--norc"}, &stderr, func(inv app.Invocation) int {
		got = inv
		return 42
	})

	assert.Equal(t, 42, code)
	assert.Empty(t, stderr.String())
	assert.Equal(t, "/bin/bash", got.Program)
	assert.Equal(t, "/tmp", got.Dir)
	assert.Equal(t, uint16(120), got.Size.Cols)
	assert.Equal(t, uint16(40), got.Size.Rows)
	assert.Equal(t, []string{"-l", "--norc"}, got.Args)
}

func TestExecuteUsageError(t *testing.T) {
	var stderr bytes.Buffer
	called := false

	code := execute([]string{"/bin/sh", "/tmp", "80"}, &stderr, func(app.Invocation) int {
		called = true
		return 0
	})

	assert.Equal(t, 1, code)
	assert.False(t, called)
	require.Contains(t, stderr.String(), app.Usage)
}

func TestExecuteDoesNotInterpretHelp(t *testing.T) {
	var got app.Invocation

	code := execute([]string{"/bin/sh", "", "80", "24", "--help"}, &bytes.Buffer{}, func(inv app.Invocation) int {
		got = inv
		return 0
	})

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"--help"}, got.Args)
}
