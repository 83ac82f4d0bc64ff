package display

import "sync"

// FakeDisplay keeps the current text of each row for assertions.
type FakeDisplay struct {
	mu   sync.Mutex
	Rows map[int]string

	// DrawErr, if set, is returned by DrawText.
	DrawErr error
}

// NewFakeDisplay creates an empty FakeDisplay.
func NewFakeDisplay() *FakeDisplay {
	return &FakeDisplay{Rows: map[int]string{}}
}

// ClearRow blanks the row.
func (f *FakeDisplay) ClearRow(row int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Rows, row)
	return nil
}

// DrawText overlays text starting at col.
func (f *FakeDisplay) DrawText(row, col int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DrawErr != nil {
		return f.DrawErr
	}
	line := []rune(f.Rows[row])
	for len(line) < col {
		line = append(line, ' ')
	}
	r := []rune(text)
	end := col + len(r)
	if end > len(line) {
		line = append(line, make([]rune, end-len(line))...)
	}
	copy(line[col:], r)
	f.Rows[row] = string(line)
	return nil
}

// Row returns the text of a row.
func (f *FakeDisplay) Row(row int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Rows[row]
}
