// Package clipboard writes text to the system clipboard through the terminal
// using the OSC 52 escape sequence.
package clipboard

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

// OSC52 copies text by writing an OSC 52 sequence to the controlling terminal.
type OSC52 struct {
	// Open returns the terminal to write to. Defaults to /dev/tty.
	Open func() (io.WriteCloser, error)

	// Getenv is used for tmux detection. Defaults to os.Getenv.
	Getenv func(string) string
}

// New returns a clipboard writing to /dev/tty.
func New() *OSC52 {
	return &OSC52{}
}

// WriteText copies text to the clipboard. Inside tmux the sequence is sent
// both wrapped in DCS passthrough and directly, so either tmux clipboard
// mode picks it up.
func (c *OSC52) WriteText(text string) error {
	open := c.Open
	if open == nil {
		open = openTTY
	}
	getenv := c.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	tty, err := open()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	defer tty.Close()

	// BEL terminator survives ssh/tmux/screen layering better than ST
	seq := "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\x07"

	if inTmux(getenv) {
		if _, err := fmt.Fprintf(tty, "\x1bPtmux;\x1b%s\x1b\\", seq); err != nil {
			return fmt.Errorf("failed to write clipboard sequence: %w", err)
		}
	}
	if _, err := io.WriteString(tty, seq); err != nil {
		return fmt.Errorf("failed to write clipboard sequence: %w", err)
	}
	return nil
}

func inTmux(getenv func(string) string) bool {
	term := getenv("TERM")
	return getenv("TMUX") != "" ||
		strings.HasPrefix(term, "tmux") ||
		strings.HasPrefix(term, "screen")
}

func openTTY() (io.WriteCloser, error) {
	return os.OpenFile("/dev/tty", os.O_WRONLY, 0)
}
