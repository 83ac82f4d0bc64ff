package status

import (
	"fmt"
	"log"

	"github.com/sweeney/ev-logger/internal/display"
)

// Display rows.
const (
	RowTitle   = 0
	RowLogging = 1
	RowBuffer  = 2
	RowFile    = 3
	RowStorage = 4
	RowMessage = 5
)

// Title is drawn on RowTitle at startup.
const Title = "=== EV LOGGER ==="

// Reporter renders readings and messages on a display and mirrors them into
// a Tracker. It only formats; it never changes logger state. Call it from the
// supervisory loop only.
type Reporter struct {
	d       display.Display
	tracker *Tracker
	lastErr string
}

// NewReporter creates a Reporter. tracker may be nil.
func NewReporter(d display.Display, tracker *Tracker) *Reporter {
	return &Reporter{d: d, tracker: tracker}
}

// Start draws the title and the initial logging state.
func (r *Reporter) Start() {
	r.draw(RowTitle, Title)
	r.draw(RowLogging, loggingText(false))
}

// Report shows an operator message. An empty message clears the row.
func (r *Reporter) Report(msg string) {
	if msg != "" {
		log.Printf("status: %s", msg)
	}
	r.draw(RowMessage, msg)
	if r.tracker != nil {
		r.tracker.SetMessage(msg)
	}
}

// Refresh redraws the status rows from rd.
func (r *Reporter) Refresh(rd Reading) {
	r.draw(RowLogging, loggingText(rd.Running))
	r.draw(RowBuffer, fmt.Sprintf("Buffer: %d%%", rd.BufferPercent()))
	r.draw(RowFile, fmt.Sprintf("File: %dkb", rd.FileSize/1000))
	if rd.StorageTotal > 0 {
		used := rd.StorageTotal - rd.StorageFree
		r.draw(RowStorage, fmt.Sprintf("%d/%dMB (%d%%)",
			used/1_000_000, rd.StorageTotal/1_000_000, rd.StorageUsedPercent()))
	}
	if r.tracker != nil {
		r.tracker.Update(rd)
	}
	if rd.Overflow {
		r.draw(RowMessage, "Buffer overflow")
	}
}

func (r *Reporter) draw(row int, text string) {
	err := r.d.ClearRow(row)
	if err == nil && text != "" {
		err = r.d.DrawText(row, 0, text)
	}
	if err != nil {
		// Log each distinct display failure once.
		if msg := err.Error(); msg != r.lastErr {
			log.Printf("display: row %d: %v", row, err)
			r.lastErr = msg
		}
		return
	}
	r.lastErr = ""
}

func loggingText(running bool) string {
	if running {
		return "Logging: ON"
	}
	return "Logging: OFF"
}
