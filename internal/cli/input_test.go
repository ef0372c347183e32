package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EgorLis/my-files/internal/domain"
)

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("  hello world  \n"))
	got, err := readLine(in, &out, "> ")
	require.NoError(t, err)
	require.Equal(t, "hello world", got)
	require.Equal(t, "> ", out.String())
}

func TestReadLinePartialBeforeEOF(t *testing.T) {
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("no-newline"))
	got, err := readLine(in, &out, "> ")
	require.NoError(t, err)
	require.Equal(t, "no-newline", got)
}

func TestConfirmDefaultsToNo(t *testing.T) {
	var out bytes.Buffer

	require.False(t, confirm(bufio.NewReader(strings.NewReader("\n")), &out, "sure?"))
	require.False(t, confirm(bufio.NewReader(strings.NewReader("n\n")), &out, "sure?"))
	require.False(t, confirm(bufio.NewReader(strings.NewReader("whatever\n")), &out, "sure?"))
	require.True(t, confirm(bufio.NewReader(strings.NewReader("y\n")), &out, "sure?"))
	require.True(t, confirm(bufio.NewReader(strings.NewReader("YES\n")), &out, "sure?"))
}

func TestHumanize(t *testing.T) {
	require.Equal(t, "offline session is read-only, sign in online to modify files",
		humanize(domain.ErrOffline))
	require.Equal(t, "wrong email or password", humanize(domain.ErrInvalidCredentials))
	require.Equal(t, "that email address is already in use", humanize(domain.ErrEmailInUse))
	require.Equal(t, "password should be at least 6 characters", humanize(domain.ErrWeakPassword))
}
