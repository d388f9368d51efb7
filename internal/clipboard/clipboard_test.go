package clipboard

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct {
	*bytes.Buffer
	closed bool
}

func (n *nopCloser) Close() error {
	n.closed = true
	return nil
}

func TestWriteText(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "Plain terminal",
			env:  map[string]string{"TERM": "xterm-256color"},
			want: "\x1b]52;c;Q0FTLTAxMDAx\x07",
		},
		{
			name: "Inside tmux",
			env:  map[string]string{"TMUX": "/tmp/tmux-1000/default,1,0"},
			want: "\x1bPtmux;\x1b\x1b]52;c;Q0FTLTAxMDAx\x07\x1b\\\x1b]52;c;Q0FTLTAxMDAx\x07",
		},
		{
			name: "Screen term over ssh",
			env:  map[string]string{"TERM": "screen-256color"},
			want: "\x1bPtmux;\x1b\x1b]52;c;Q0FTLTAxMDAx\x07\x1b\\\x1b]52;c;Q0FTLTAxMDAx\x07",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &nopCloser{Buffer: &bytes.Buffer{}}
			c := &OSC52{
				Open:   func() (io.WriteCloser, error) { return out, nil },
				Getenv: func(k string) string { return tt.env[k] },
			}

			require.NoError(t, c.WriteText("CAS-01001"))
			assert.Equal(t, tt.want, out.String())
			assert.True(t, out.closed)
		})
	}
}

func TestWriteTextWithoutTerminal(t *testing.T) {
	c := &OSC52{
		Open:   func() (io.WriteCloser, error) { return nil, errors.New("no such device") },
		Getenv: func(string) string { return "" },
	}
	assert.ErrorContains(t, c.WriteText("CAS-1"), "failed to open terminal")
}
