// Package display provides the row-addressed text sink that shows logger
// status. Rows are numbered from 0 at the top.
package display

// Display is a line-oriented text surface.
type Display interface {
	// ClearRow blanks a whole row.
	ClearRow(row int) error

	// DrawText writes text at the given row and column.
	DrawText(row, col int, text string) error
}
