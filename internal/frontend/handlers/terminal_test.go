package handlers

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamTerminal(t *testing.T) {
	var out bytes.Buffer
	term := NewStreamTerminal(strings.NewReader("look\r\nnorth\nlast"), &out)

	for _, want := range []string{"look", "north", "last"} {
		line, err := term.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
	_, err := term.ReadLine()
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, term.WritePrompt("> "))
	require.NoError(t, term.WriteLine("hi"))
	assert.Equal(t, "> hi\n", out.String())
}

func TestStreamTerminal_ReadSecret(t *testing.T) {
	term := NewStreamTerminal(strings.NewReader("typed\n"), io.Discard)
	term.ReadSecret = func() (string, error) { return "hidden", nil }

	pw, err := term.ReadPassword()
	require.NoError(t, err)
	assert.Equal(t, "hidden", pw)

	line, err := term.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "typed", line)
}

func TestStreamTerminal_RunsSession(t *testing.T) {
	h, _ := newTestHandler(t)
	var out bytes.Buffer
	term := NewStreamTerminal(strings.NewReader("kim\nget\nquit\n"), &out)
	require.NoError(t, h.Run(t.Context(), term))
	assert.Contains(t, plain(out.String()), "Placed Silver Axe into your backpack.")
}
