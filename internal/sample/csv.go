package sample

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{"index", "adc", "accel_x", "accel_y", "accel_z"}

// DecodeStats summarises a WriteCSV run.
type DecodeStats struct {
	Records  int
	Trailing int // bytes after the last whole record
}

// WriteCSV decodes a raw log from r and writes one CSV row per record to w.
// A trailing partial record (e.g. after power loss) is skipped and counted.
func WriteCSV(w io.Writer, r io.Reader) (DecodeStats, error) {
	var st DecodeStats
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return st, fmt.Errorf("write header: %w", err)
	}

	br := bufio.NewReader(r)
	var rec [Size]byte
	row := make([]string, len(CSVHeader))
	for {
		n, err := io.ReadFull(br, rec[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			st.Trailing = n
			break
		}
		if err != nil {
			return st, fmt.Errorf("read record %d: %w", st.Records, err)
		}

		s, _ := Decode(rec[:])
		row[0] = strconv.Itoa(st.Records)
		row[1] = strconv.FormatUint(uint64(s.ADC), 10)
		row[2] = strconv.Itoa(int(s.AccelX))
		row[3] = strconv.Itoa(int(s.AccelY))
		row[4] = strconv.Itoa(int(s.AccelZ))
		if err := cw.Write(row); err != nil {
			return st, fmt.Errorf("write record %d: %w", st.Records, err)
		}
		st.Records++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return st, fmt.Errorf("flush csv: %w", err)
	}
	return st, nil
}
