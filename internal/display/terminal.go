package display

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Terminal renders rows on an ANSI/VT100 terminal. Row 0 is the first line
// of the screen.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal wraps w. The screen is cleared once.
func NewTerminal(w io.Writer) (*Terminal, error) {
	t := &Terminal{w: w}
	if _, err := io.WriteString(w, "\x1b[2J"); err != nil {
		return nil, fmt.Errorf("clear screen: %w", err)
	}
	return t, nil
}

// ClearRow erases the row.
func (t *Terminal) ClearRow(row int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "\x1b[%d;1H\x1b[2K", row+1)
	return err
}

// DrawText positions the cursor and writes text.
func (t *Terminal) DrawText(row, col int, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "\x1b[%d;%dH%s", row+1, col+1, text)
	return err
}

// LogWriter confines scrolling to the lines from row top down and returns a
// writer that appends to that region. Rows above top keep their content, so
// the writer can take log output while the status rows are redrawn.
func (t *Terminal) LogWriter(top int) (io.Writer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.w, "\x1b[%d;r", top+1); err != nil {
		return nil, fmt.Errorf("set scroll region: %w", err)
	}
	return logWriter{t}, nil
}

// Close restores full-screen scrolling.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, "\x1b[r")
	return err
}

type logWriter struct{ t *Terminal }

// Write prints p on the bottom line of the scroll region.
func (l logWriter) Write(p []byte) (int, error) {
	l.t.mu.Lock()
	defer l.t.mu.Unlock()
	if _, err := fmt.Fprintf(l.t.w, "\x1b[999;1H\n%s", bytes.TrimRight(p, "\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}
